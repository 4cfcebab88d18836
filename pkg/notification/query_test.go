package notification_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

type fakeCounter struct {
	counts      map[string]int64
	sets        int
	invalidated int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int64)}
}

func (c *fakeCounter) Get(ctx context.Context, recipientID string) (int64, bool, error) {
	count, ok := c.counts[recipientID]
	return count, ok, nil
}

func (c *fakeCounter) Set(ctx context.Context, recipientID string, count int64) error {
	c.counts[recipientID] = count
	c.sets++
	return nil
}

func (c *fakeCounter) Invalidate(ctx context.Context, recipientID string) error {
	delete(c.counts, recipientID)
	c.invalidated++
	return nil
}

// seed stores a notification with an explicit creation time, bypassing the
// service defaults, so ordering tests are deterministic.
func seed(t *testing.T, storage *notification.MemoryStorage, id, recipientID string, typ notification.Type, createdAt time.Time) *notification.Notification {
	t.Helper()
	n := &notification.Notification{
		ID:          id,
		RecipientID: recipientID,
		Type:        typ,
		Priority:    notification.PriorityNormal,
		Title:       "Title " + id,
		Message:     "Message " + id,
		Status:      notification.StatusPending,
		Deliveries: map[notification.Channel]notification.Delivery{
			notification.ChannelInApp: {Status: notification.ChannelStatusPending},
		},
		ExpiresAt: createdAt.Add(notification.DefaultTTL),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, storage.Create(context.Background(), n))
	return n
}

func TestServiceList(t *testing.T) {
	t.Parallel()

	svc, storage := newTestService(t)
	base := time.Now().Add(-time.Hour)
	for i := range 5 {
		seed(t, storage, fmt.Sprintf("n-%d", i), "user-1", notification.TypeGeneral, base.Add(time.Duration(i)*time.Minute))
	}
	seed(t, storage, "other", "user-2", notification.TypeGeneral, base)

	t.Run("newest first with pagination", func(t *testing.T) {
		t.Parallel()

		page, err := svc.List(context.Background(), "user-1", notification.ListOptions{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, int64(5), page.Unread)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "n-4", page.Items[0].ID)
		assert.Equal(t, "n-3", page.Items[1].ID)

		page2, err := svc.List(context.Background(), "user-1", notification.ListOptions{Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, page2.Items, 2)
		assert.Equal(t, "n-2", page2.Items[0].ID)
		assert.Equal(t, "n-1", page2.Items[1].ID)
	})

	t.Run("normalizes page and limit", func(t *testing.T) {
		t.Parallel()

		page, err := svc.List(context.Background(), "user-1", notification.ListOptions{Page: 0, Limit: 0})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, notification.DefaultPageSize, page.Limit)

		page, err = svc.List(context.Background(), "user-1", notification.ListOptions{Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, notification.MaxPageSize, page.Limit)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		t.Parallel()

		page, err := svc.List(context.Background(), "user-1", notification.ListOptions{Page: 10, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(5), page.Total)
	})

	t.Run("missing recipient id", func(t *testing.T) {
		t.Parallel()

		_, err := svc.List(context.Background(), "", notification.ListOptions{})
		assert.ErrorIs(t, err, notification.ErrNotFound)
	})
}

func TestServiceListFilters(t *testing.T) {
	t.Parallel()

	svc, storage := newTestService(t)
	base := time.Now().Add(-time.Hour)

	seed(t, storage, "graded", "user-1", notification.TypeAssignmentGraded, base)
	seed(t, storage, "reply", "user-1", notification.TypeDiscussionReply, base.Add(time.Minute))
	read := seed(t, storage, "read", "user-1", notification.TypeDiscussionReply, base.Add(2*time.Minute))
	require.NoError(t, storage.SetRead(context.Background(), read.ID, time.Now()))

	t.Run("by type", func(t *testing.T) {
		t.Parallel()

		page, err := svc.List(context.Background(), "user-1", notification.ListOptions{Type: notification.TypeAssignmentGraded})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "graded", page.Items[0].ID)
		assert.Equal(t, int64(1), page.Unread, "unread count follows the type filter")
	})

	t.Run("unread only", func(t *testing.T) {
		t.Parallel()

		page, err := svc.List(context.Background(), "user-1", notification.ListOptions{UnreadOnly: true})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		for _, n := range page.Items {
			assert.Nil(t, n.ReadAt)
		}
	})
}

func TestServiceUnreadCount(t *testing.T) {
	t.Parallel()

	svc, storage := newTestService(t)
	base := time.Now().Add(-time.Hour)

	seed(t, storage, "a", "user-1", notification.TypeGeneral, base)
	seed(t, storage, "b", "user-1", notification.TypeDiscussionReply, base)
	read := seed(t, storage, "c", "user-1", notification.TypeGeneral, base)
	require.NoError(t, storage.SetRead(context.Background(), read.ID, time.Now()))
	cancelled := seed(t, storage, "d", "user-1", notification.TypeGeneral, base)
	require.NoError(t, storage.SetStatus(context.Background(), cancelled.ID, notification.StatusCancelled))

	count, err := svc.UnreadCount(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "read and cancelled notifications are not unread")

	count, err = svc.UnreadCount(context.Background(), "user-1", notification.TypeDiscussionReply)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestServiceUnreadCountCache(t *testing.T) {
	t.Parallel()

	counter := newFakeCounter()
	svc, storage := newTestService(t, notification.WithUnreadCounter(counter))
	seed(t, storage, "a", "user-1", notification.TypeGeneral, time.Now())

	// Miss populates the cache.
	count, err := svc.UnreadCount(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, counter.sets)

	// Hit skips storage: a stale cached value is returned as-is.
	counter.counts["user-1"] = 99
	count, err = svc.UnreadCount(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(99), count)

	// Type-scoped counts bypass the cache entirely.
	count, err = svc.UnreadCount(context.Background(), "user-1", notification.TypeGeneral)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Mutations invalidate.
	require.NoError(t, svc.MarkRead(context.Background(), "user-1", "a"))
	assert.NotContains(t, counter.counts, "user-1")
}

func TestServiceMarkAllRead(t *testing.T) {
	t.Parallel()

	svc, storage := newTestService(t)
	base := time.Now().Add(-time.Hour)

	seed(t, storage, "old-reply", "user-1", notification.TypeDiscussionReply, base)
	seed(t, storage, "new-reply", "user-1", notification.TypeDiscussionReply, base.Add(30*time.Minute))
	seed(t, storage, "graded", "user-1", notification.TypeAssignmentGraded, base)

	t.Run("type scoped with cutoff", func(t *testing.T) {
		cutoff := base.Add(15 * time.Minute)
		modified, err := svc.MarkAllRead(context.Background(), "user-1", notification.MarkAllReadOptions{
			Type:   notification.TypeDiscussionReply,
			Before: &cutoff,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), modified, "only the old reply predates the cutoff")

		count, err := svc.UnreadCount(context.Background(), "user-1", "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("unscoped reads the rest", func(t *testing.T) {
		modified, err := svc.MarkAllRead(context.Background(), "user-1", notification.MarkAllReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), modified)

		count, err := svc.UnreadCount(context.Background(), "user-1", "")
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestServiceAnalytics(t *testing.T) {
	t.Parallel()

	svc, storage := newTestService(t)
	base := time.Now().Add(-24 * time.Hour)

	for i := range 10 {
		typ := notification.TypeGeneral
		if i < 3 {
			typ = notification.TypeAssignmentGraded
		}
		n := seed(t, storage, fmt.Sprintf("n-%d", i), "user-1", typ, base.Add(time.Duration(i)*time.Minute))
		if i < 4 {
			require.NoError(t, storage.SetRead(context.Background(), n.ID, time.Now()))
		}
		if i < 2 {
			require.NoError(t, storage.SetClicked(context.Background(), n.ID, time.Now()))
		}
	}

	t.Run("rates and distributions", func(t *testing.T) {
		report, err := svc.Analytics(context.Background(), notification.AnalyticsFilter{RecipientID: "user-1"})
		require.NoError(t, err)

		assert.Equal(t, int64(10), report.Total)
		assert.Equal(t, int64(4), report.Read)
		assert.Equal(t, int64(2), report.Clicked)
		assert.InDelta(t, 40.0, report.ReadRate, 0.001)
		assert.InDelta(t, 20.0, report.ClickRate, 0.001)
		assert.Equal(t, int64(3), report.ByType[notification.TypeAssignmentGraded])
		assert.Equal(t, int64(7), report.ByType[notification.TypeGeneral])
		assert.Equal(t, int64(10), report.ByPriority[notification.PriorityNormal])
	})

	t.Run("empty set has zero rates", func(t *testing.T) {
		report, err := svc.Analytics(context.Background(), notification.AnalyticsFilter{RecipientID: "nobody"})
		require.NoError(t, err)
		assert.Zero(t, report.Total)
		assert.Zero(t, report.ReadRate)
	})

	t.Run("inverted time range is swapped", func(t *testing.T) {
		from := base.Add(5 * time.Minute)
		to := base
		report, err := svc.Analytics(context.Background(), notification.AnalyticsFilter{
			RecipientID: "user-1",
			From:        &from,
			To:          &to,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(6), report.Total, "range covers minutes 0 through 5 inclusive")
	})
}
