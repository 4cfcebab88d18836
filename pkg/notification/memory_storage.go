package notification

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing; production deployments use the
// mongodb subpackage.
type MemoryStorage struct {
	notifications map[string]*Notification
	mu            sync.RWMutex
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[string]*Notification),
	}
}

// clone copies the entity so stored state never aliases caller state.
func clone(n *Notification) *Notification {
	c := *n
	c.Deliveries = make(map[Channel]Delivery, len(n.Deliveries))
	for ch, d := range n.Deliveries {
		c.Deliveries[ch] = d
	}
	if n.Context.Metadata != nil {
		c.Context.Metadata = make(map[string]string, len(n.Context.Metadata))
		for k, v := range n.Context.Metadata {
			c.Context.Metadata[k] = v
		}
	}
	return &c
}

func (s *MemoryStorage) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		return errors.New("notification ID is required")
	}
	if n.RecipientID == "" {
		return errors.New("recipient ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return errors.New("notification ID already exists")
	}
	s.notifications[n.ID] = clone(n)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(n), nil
}

func (s *MemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[id]; !ok {
		return ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

func (s *MemoryStorage) SetRead(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	// First timestamp wins, matching the store-level idempotency the service
	// relies on.
	if n.ReadAt != nil {
		return nil
	}
	at = at.UTC()
	n.ReadAt = &at
	n.Status = StatusRead
	n.UpdatedAt = at
	return nil
}

func (s *MemoryStorage) SetClicked(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	if n.ClickedAt != nil {
		return nil
	}
	at = at.UTC()
	n.ClickedAt = &at
	n.UpdatedAt = at
	return nil
}

func (s *MemoryStorage) SetDismissed(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	if n.DismissedAt != nil {
		return nil
	}
	at = at.UTC()
	n.DismissedAt = &at
	n.UpdatedAt = at
	return nil
}

func (s *MemoryStorage) SetStatus(ctx context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.Status = status
	n.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) SetSchedule(ctx context.Context, id string, at *time.Time, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.ScheduledFor = at
	n.Status = status
	n.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) SetChannel(ctx context.Context, id string, ch Channel, d Delivery, aggregate Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	if _, ok := n.Deliveries[ch]; !ok {
		return ErrChannelNotRequested
	}
	n.Deliveries[ch] = d
	n.Status = aggregate
	n.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) List(ctx context.Context, recipientID string, opts ListOptions) ([]Notification, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Notification
	for _, n := range s.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if opts.Type != "" && n.Type != opts.Type {
			continue
		}
		if opts.UnreadOnly && (n.ReadAt != nil || n.Status == StatusCancelled) {
			continue
		}
		matched = append(matched, n)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := opts.Offset()
	if start >= len(matched) {
		return []Notification{}, total, nil
	}
	end := start + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}

	items := make([]Notification, 0, end-start)
	for _, n := range matched[start:end] {
		items = append(items, *clone(n))
	}
	return items, total, nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, recipientID string, t Type) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if t != "" && n.Type != t {
			continue
		}
		if n.ReadAt == nil && n.Status != StatusCancelled {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, recipientID string, opts MarkAllReadOptions) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var modified int64
	for _, n := range s.notifications {
		if n.RecipientID != recipientID || n.ReadAt != nil || n.Status == StatusCancelled {
			continue
		}
		if opts.Type != "" && n.Type != opts.Type {
			continue
		}
		if opts.Before != nil && !n.CreatedAt.Before(*opts.Before) {
			continue
		}
		at := now
		n.ReadAt = &at
		n.Status = StatusRead
		n.UpdatedAt = now
		modified++
	}
	return modified, nil
}

func (s *MemoryStorage) ListDue(ctx context.Context, now time.Time, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*Notification
	for _, n := range s.notifications {
		if n.IsDue(now) {
			due = append(due, n)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if ri, rj := due[i].Priority.Rank(), due[j].Priority.Rank(); ri != rj {
			return ri > rj
		}
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	items := make([]Notification, 0, len(due))
	for _, n := range due {
		items = append(items, *clone(n))
	}
	return items, nil
}

func (s *MemoryStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, n := range s.notifications {
		if !n.IsExpired(now) {
			continue
		}
		deletable := n.Status == StatusRead || n.Status == StatusCancelled || n.DismissedAt != nil
		if !deletable {
			continue
		}
		delete(s.notifications, id)
		removed++
	}
	return removed, nil
}

func (s *MemoryStorage) Analytics(ctx context.Context, f AnalyticsFilter) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := &Report{
		ByType:     make(map[Type]int64),
		ByPriority: make(map[Priority]int64),
	}

	for _, n := range s.notifications {
		if f.RecipientID != "" && n.RecipientID != f.RecipientID {
			continue
		}
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		if f.From != nil && n.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && n.CreatedAt.After(*f.To) {
			continue
		}

		report.Total++
		if n.ReadAt != nil {
			report.Read++
		}
		if n.ClickedAt != nil {
			report.Clicked++
		}
		if n.DismissedAt != nil {
			report.Dismissed++
		}
		report.ByType[n.Type]++
		report.ByPriority[n.Priority]++
	}

	return report, nil
}

var _ Storage = (*MemoryStorage)(nil)
