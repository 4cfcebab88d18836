package delivery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/classkit/pkg/delivery"
	"github.com/dmitrymomot/classkit/pkg/notification"
)

type channelReport struct {
	id     string
	ch     notification.Channel
	status notification.ChannelStatus
	meta   notification.DeliveryMeta
}

type fakeDispatcher struct {
	mu      sync.Mutex
	due     []notification.Notification
	reports []channelReport
	purged  int64
}

func (d *fakeDispatcher) DuePending(ctx context.Context, limit int) ([]notification.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	due := d.due
	d.due = nil
	if limit < len(due) {
		due = due[:limit]
	}
	return due, nil
}

func (d *fakeDispatcher) UpdateChannelStatus(ctx context.Context, id string, ch notification.Channel, status notification.ChannelStatus, meta notification.DeliveryMeta) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports = append(d.reports, channelReport{id: id, ch: ch, status: status, meta: meta})
	return nil
}

func (d *fakeDispatcher) PurgeExpired(ctx context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.purged++
	return 0, nil
}

func (d *fakeDispatcher) recorded() []channelReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]channelReport(nil), d.reports...)
}

type fakeSender struct {
	channel    notification.Channel
	trackingID string
	err        error
	mu         sync.Mutex
	sent       []string
}

func (s *fakeSender) Channel() notification.Channel { return s.channel }

func (s *fakeSender) Send(ctx context.Context, n notification.Notification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n.ID)
	if s.err != nil {
		return "", s.err
	}
	return s.trackingID, nil
}

func pendingNotification(id string, channels ...notification.Channel) notification.Notification {
	deliveries := make(map[notification.Channel]notification.Delivery, len(channels))
	for _, ch := range channels {
		deliveries[ch] = notification.Delivery{Status: notification.ChannelStatusPending}
	}
	return notification.Notification{
		ID:          id,
		RecipientID: "user-1",
		Type:        notification.TypeAssignmentCreated,
		Title:       "New assignment",
		Message:     "A new assignment was posted",
		Status:      notification.StatusPending,
		Deliveries:  deliveries,
	}
}

func TestNewWorker(t *testing.T) {
	t.Parallel()

	t.Run("nil dispatcher", func(t *testing.T) {
		t.Parallel()

		_, err := delivery.NewWorker(nil)
		assert.ErrorIs(t, err, delivery.ErrDispatcherNil)
	})

	t.Run("start without senders", func(t *testing.T) {
		t.Parallel()

		worker, err := delivery.NewWorker(&fakeDispatcher{})
		require.NoError(t, err)

		err = worker.Start(context.Background())
		assert.ErrorIs(t, err, delivery.ErrNoSenders)
	})
}

func TestWorkerProcessDue(t *testing.T) {
	t.Parallel()

	t.Run("successful delivery reports sent with tracking id", func(t *testing.T) {
		t.Parallel()

		dispatcher := &fakeDispatcher{
			due: []notification.Notification{pendingNotification("n-1", notification.ChannelInApp)},
		}
		sender := &fakeSender{channel: notification.ChannelInApp, trackingID: "track-1"}

		worker, err := delivery.NewWorker(dispatcher)
		require.NoError(t, err)
		worker.RegisterSender(sender)

		require.NoError(t, worker.ProcessDue(context.Background()))

		reports := dispatcher.recorded()
		require.Len(t, reports, 1)
		assert.Equal(t, "n-1", reports[0].id)
		assert.Equal(t, notification.ChannelInApp, reports[0].ch)
		assert.Equal(t, notification.ChannelStatusSent, reports[0].status)
		assert.Equal(t, "track-1", reports[0].meta.TrackingID)
		assert.Equal(t, []string{"n-1"}, sender.sent)
	})

	t.Run("sender error reports channel failed", func(t *testing.T) {
		t.Parallel()

		dispatcher := &fakeDispatcher{
			due: []notification.Notification{pendingNotification("n-1", notification.ChannelEmail)},
		}
		sender := &fakeSender{channel: notification.ChannelEmail, err: errors.New("smtp unavailable")}

		worker, err := delivery.NewWorker(dispatcher)
		require.NoError(t, err)
		worker.RegisterSender(sender)

		require.NoError(t, worker.ProcessDue(context.Background()))

		reports := dispatcher.recorded()
		require.Len(t, reports, 1)
		assert.Equal(t, notification.ChannelStatusFailed, reports[0].status)
		assert.Equal(t, "smtp unavailable", reports[0].meta.FailureReason)
	})

	t.Run("missing sender fails the channel with a reason", func(t *testing.T) {
		t.Parallel()

		dispatcher := &fakeDispatcher{
			due: []notification.Notification{pendingNotification("n-1", notification.ChannelPush)},
		}

		worker, err := delivery.NewWorker(dispatcher)
		require.NoError(t, err)
		worker.RegisterSender(&fakeSender{channel: notification.ChannelInApp})

		require.NoError(t, worker.ProcessDue(context.Background()))

		reports := dispatcher.recorded()
		require.Len(t, reports, 1)
		assert.Equal(t, notification.ChannelPush, reports[0].ch)
		assert.Equal(t, notification.ChannelStatusFailed, reports[0].status)
		assert.Equal(t, delivery.ErrNoSenderRegistered.Error(), reports[0].meta.FailureReason)
	})

	t.Run("one failing channel does not block the others", func(t *testing.T) {
		t.Parallel()

		dispatcher := &fakeDispatcher{
			due: []notification.Notification{
				pendingNotification("n-1", notification.ChannelInApp, notification.ChannelEmail),
			},
		}
		inApp := &fakeSender{channel: notification.ChannelInApp, trackingID: "in-app"}
		email := &fakeSender{channel: notification.ChannelEmail, err: errors.New("bounced")}

		worker, err := delivery.NewWorker(dispatcher)
		require.NoError(t, err)
		worker.RegisterSenders(inApp, email)

		require.NoError(t, worker.ProcessDue(context.Background()))

		reports := dispatcher.recorded()
		require.Len(t, reports, 2)

		byChannel := make(map[notification.Channel]channelReport, len(reports))
		for _, r := range reports {
			byChannel[r.ch] = r
		}
		assert.Equal(t, notification.ChannelStatusSent, byChannel[notification.ChannelInApp].status)
		assert.Equal(t, notification.ChannelStatusFailed, byChannel[notification.ChannelEmail].status)
		assert.Equal(t, "bounced", byChannel[notification.ChannelEmail].meta.FailureReason)
	})
}

func TestWorkerLifecycle(t *testing.T) {
	t.Parallel()

	dispatcher := &fakeDispatcher{
		due: []notification.Notification{pendingNotification("n-1", notification.ChannelInApp)},
	}
	sender := &fakeSender{channel: notification.ChannelInApp}

	worker, err := delivery.NewWorker(dispatcher,
		delivery.WithPollInterval(10*time.Millisecond),
		delivery.WithSweepInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	worker.RegisterSender(sender)

	require.NoError(t, worker.Start(context.Background()))
	assert.Error(t, worker.Start(context.Background()), "second start should fail")

	require.Eventually(t, func() bool {
		return len(dispatcher.recorded()) == 1
	}, time.Second, 5*time.Millisecond, "due notification should be delivered by the poll loop")

	require.NoError(t, worker.Stop())
	assert.Error(t, worker.Stop(), "second stop should fail")

	dispatcher.mu.Lock()
	purged := dispatcher.purged
	dispatcher.mu.Unlock()
	assert.GreaterOrEqual(t, purged, int64(1), "sweep loop should have run")
}
