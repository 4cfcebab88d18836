package notification

import (
	"context"
	"time"
)

// Storage handles notification persistence and retrieval.
//
// Mutating operations are deliberately field-scoped (SetRead, SetChannel, …)
// rather than whole-document replacement so that implementations can rely on
// the store's per-document atomic update guarantees. Concurrent callers may
// race on multi-step flows (read entity, mutate, write fields); the service
// keeps those flows idempotent so a lost race is harmless.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, n *Notification) error

	// Get retrieves a single notification by id.
	Get(ctx context.Context, id string) (*Notification, error)

	// Delete removes a notification.
	Delete(ctx context.Context, id string) error

	// SetRead records the read timestamp and aggregate status unless a read
	// timestamp is already present. Implementations must not overwrite an
	// existing timestamp.
	SetRead(ctx context.Context, id string, at time.Time) error

	// SetClicked records the click timestamp unless already present.
	SetClicked(ctx context.Context, id string, at time.Time) error

	// SetDismissed records the dismissal timestamp unless already present.
	SetDismissed(ctx context.Context, id string, at time.Time) error

	// SetStatus overwrites the aggregate status.
	SetStatus(ctx context.Context, id string, status Status) error

	// SetSchedule overwrites the scheduled send time and aggregate status in
	// one update.
	SetSchedule(ctx context.Context, id string, at *time.Time, status Status) error

	// SetChannel overwrites one channel's delivery record and the aggregate
	// status in one update.
	SetChannel(ctx context.Context, id string, ch Channel, d Delivery, aggregate Status) error

	// List returns a page of the recipient's notifications, newest first,
	// along with the total match count before pagination.
	List(ctx context.Context, recipientID string, opts ListOptions) ([]Notification, int64, error)

	// CountUnread returns the number of notifications with no read timestamp
	// and a status other than cancelled, optionally restricted to one type.
	CountUnread(ctx context.Context, recipientID string, t Type) (int64, error)

	// MarkAllRead flips every matching unread notification to read and
	// returns the number modified.
	MarkAllRead(ctx context.Context, recipientID string, opts MarkAllReadOptions) (int64, error)

	// ListDue returns pending notifications whose send time has arrived,
	// ordered by priority (highest first) then creation time (oldest first).
	ListDue(ctx context.Context, now time.Time, limit int) ([]Notification, error)

	// DeleteExpired removes notifications past their TTL that the recipient
	// has read, dismissed, or that were cancelled. Unread pending
	// notifications are never removed by expiry alone.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Analytics aggregates engagement figures over the matched set.
	Analytics(ctx context.Context, f AnalyticsFilter) (*Report, error)
}

// ListOptions provides filtering and pagination for listing notifications.
// Page is 1-based; the service normalizes and caps Limit before the options
// reach storage.
type ListOptions struct {
	Type       Type // zero value means all types
	UnreadOnly bool
	Page       int
	Limit      int
}

// Offset converts page/limit into a skip count.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// MarkAllReadOptions restricts a bulk mark-read operation.
type MarkAllReadOptions struct {
	Type   Type       // zero value means all types
	Before *time.Time // only notifications created before this instant
}

// Page is one page of a recipient's notification feed.
type Page struct {
	Items  []Notification `json:"items"`
	Total  int64          `json:"total"`
	Unread int64          `json:"unread"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// AnalyticsFilter scopes an analytics query. Zero-value fields are ignored.
type AnalyticsFilter struct {
	RecipientID string
	Type        Type
	From        *time.Time
	To          *time.Time
}

// Report aggregates engagement figures for a matched set of notifications.
// Rates are percentages in [0, 100].
type Report struct {
	Total      int64              `json:"total"`
	Read       int64              `json:"read"`
	Clicked    int64              `json:"clicked"`
	Dismissed  int64              `json:"dismissed"`
	ReadRate   float64            `json:"read_rate"`
	ClickRate  float64            `json:"click_rate"`
	ByType     map[Type]int64     `json:"by_type"`
	ByPriority map[Priority]int64 `json:"by_priority"`
}

// Finalize computes the derived rates from the counters.
func (r *Report) Finalize() {
	if r.Total > 0 {
		r.ReadRate = float64(r.Read) / float64(r.Total) * 100
		r.ClickRate = float64(r.Clicked) / float64(r.Total) * 100
	}
}

// Role is a platform user role used by broadcast selectors.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// UserDirectory resolves broadcast selectors to concrete recipients. It is an
// external collaborator: the notification core never owns user records.
type UserDirectory interface {
	// ActiveUserIDs returns ids of non-deleted users, optionally restricted
	// to the given roles. With no roles it returns every active user.
	ActiveUserIDs(ctx context.Context, roles ...Role) ([]string, error)

	// Exists reports whether an active user with the given id exists.
	Exists(ctx context.Context, id string) (bool, error)
}

// UnreadCounter caches per-recipient unread counts. Implementations may lose
// entries at any time; storage remains the source of truth.
type UnreadCounter interface {
	// Get returns the cached count and whether it was present.
	Get(ctx context.Context, recipientID string) (int64, bool, error)

	// Set stores the count.
	Set(ctx context.Context, recipientID string, count int64) error

	// Invalidate drops the cached count after a mutation.
	Invalidate(ctx context.Context, recipientID string) error
}
