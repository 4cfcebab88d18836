package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

func TestMemoryStorageCreate(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	n := entity()

	require.NoError(t, storage.Create(context.Background(), n))

	t.Run("duplicate id is rejected", func(t *testing.T) {
		assert.Error(t, storage.Create(context.Background(), n))
	})

	t.Run("stored copy does not alias the caller's entity", func(t *testing.T) {
		n.Title = "mutated after store"
		n.Deliveries[notification.ChannelInApp] = notification.Delivery{Status: notification.ChannelStatusFailed}

		got, err := storage.Get(context.Background(), n.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated after store", got.Title)
		assert.Equal(t, notification.ChannelStatusPending, got.Deliveries[notification.ChannelInApp].Status)
	})

	t.Run("missing required fields", func(t *testing.T) {
		assert.Error(t, storage.Create(context.Background(), &notification.Notification{RecipientID: "user-1"}))
		assert.Error(t, storage.Create(context.Background(), &notification.Notification{ID: "x"}))
	})
}

func TestMemoryStorageGetDelete(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()

	_, err := storage.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, notification.ErrNotFound)

	assert.ErrorIs(t, storage.Delete(context.Background(), "missing"), notification.ErrNotFound)

	n := entity()
	require.NoError(t, storage.Create(context.Background(), n))
	require.NoError(t, storage.Delete(context.Background(), n.ID))

	_, err = storage.Get(context.Background(), n.ID)
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

func TestMemoryStorageGuardedTimestamps(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	n := entity()
	require.NoError(t, storage.Create(context.Background(), n))

	first := time.Now().UTC()
	require.NoError(t, storage.SetRead(context.Background(), n.ID, first))
	// Second write loses: the stored timestamp must not move.
	require.NoError(t, storage.SetRead(context.Background(), n.ID, first.Add(time.Hour)))

	got, err := storage.Get(context.Background(), n.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.Equal(t, first, *got.ReadAt)
	assert.Equal(t, notification.StatusRead, got.Status)

	require.NoError(t, storage.SetClicked(context.Background(), n.ID, first))
	require.NoError(t, storage.SetClicked(context.Background(), n.ID, first.Add(time.Hour)))
	require.NoError(t, storage.SetDismissed(context.Background(), n.ID, first))
	require.NoError(t, storage.SetDismissed(context.Background(), n.ID, first.Add(time.Hour)))

	got, err = storage.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *got.ClickedAt)
	assert.Equal(t, first, *got.DismissedAt)

	assert.ErrorIs(t, storage.SetRead(context.Background(), "missing", first), notification.ErrNotFound)
}

func TestMemoryStorageSetChannel(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	n := entity(notification.ChannelInApp, notification.ChannelEmail)
	require.NoError(t, storage.Create(context.Background(), n))

	now := time.Now()
	d := notification.Delivery{Status: notification.ChannelStatusSent, SentAt: &now, TrackingID: "pm-1"}
	require.NoError(t, storage.SetChannel(context.Background(), n.ID, notification.ChannelEmail, d, notification.StatusPending))

	got, err := storage.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.ChannelStatusSent, got.Deliveries[notification.ChannelEmail].Status)
	assert.Equal(t, "pm-1", got.Deliveries[notification.ChannelEmail].TrackingID)
	assert.Equal(t, notification.StatusPending, got.Status)

	err = storage.SetChannel(context.Background(), n.ID, notification.ChannelSMS, d, notification.StatusPending)
	assert.ErrorIs(t, err, notification.ErrChannelNotRequested)
}

func TestMemoryStorageListDue(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	now := time.Now()

	mk := func(id string, priority notification.Priority, createdAt time.Time, scheduledFor *time.Time, status notification.Status) {
		n := entity()
		n.ID = id
		n.Priority = priority
		n.CreatedAt = createdAt
		n.ScheduledFor = scheduledFor
		n.Status = status
		require.NoError(t, storage.Create(context.Background(), n))
	}

	future := now.Add(time.Hour)
	past := now.Add(-time.Minute)
	mk("normal-old", notification.PriorityNormal, now.Add(-2*time.Hour), nil, notification.StatusPending)
	mk("normal-new", notification.PriorityNormal, now.Add(-time.Hour), nil, notification.StatusPending)
	mk("urgent", notification.PriorityUrgent, now.Add(-time.Minute), nil, notification.StatusPending)
	mk("scheduled-due", notification.PriorityLow, now.Add(-time.Hour), &past, notification.StatusPending)
	mk("scheduled-later", notification.PriorityUrgent, now.Add(-time.Hour), &future, notification.StatusPending)
	mk("already-sent", notification.PriorityUrgent, now.Add(-time.Hour), nil, notification.StatusSent)

	due, err := storage.ListDue(context.Background(), now, 0)
	require.NoError(t, err)

	ids := make([]string, 0, len(due))
	for _, n := range due {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"urgent", "normal-old", "normal-new", "scheduled-due"}, ids,
		"highest priority first, then oldest first; future and non-pending excluded")

	limited, err := storage.ListDue(context.Background(), now, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemoryStorageDeleteExpired(t *testing.T) {
	t.Parallel()

	storage := notification.NewMemoryStorage()
	now := time.Now()

	mk := func(id string, expiresAt time.Time, mutate func(*notification.Notification)) {
		n := entity()
		n.ID = id
		n.ExpiresAt = expiresAt
		if mutate != nil {
			mutate(n)
		}
		require.NoError(t, storage.Create(context.Background(), n))
	}

	expired := now.Add(-time.Hour)
	live := now.Add(time.Hour)
	readAt := now.Add(-2 * time.Hour)

	mk("expired-read", expired, func(n *notification.Notification) {
		n.ReadAt = &readAt
		n.Status = notification.StatusRead
	})
	mk("expired-cancelled", expired, func(n *notification.Notification) {
		n.Status = notification.StatusCancelled
	})
	mk("expired-dismissed", expired, func(n *notification.Notification) {
		n.DismissedAt = &readAt
	})
	mk("expired-unread", expired, nil)
	mk("live-read", live, func(n *notification.Notification) {
		n.ReadAt = &readAt
		n.Status = notification.StatusRead
	})

	removed, err := storage.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	_, err = storage.Get(context.Background(), "expired-unread")
	assert.NoError(t, err, "unread pending notifications survive expiry")

	_, err = storage.Get(context.Background(), "live-read")
	assert.NoError(t, err, "unexpired notifications survive")

	_, err = storage.Get(context.Background(), "expired-read")
	assert.ErrorIs(t, err, notification.ErrNotFound)
}
