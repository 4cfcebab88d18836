package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dmitrymomot/classkit/pkg/logger"
	"github.com/dmitrymomot/classkit/pkg/validator"
)

// Service orchestrates notification creation, lifecycle mutations and
// queries against an injected Storage. It holds no mutable state of its own;
// every operation is an independent request/response unit against the store.
type Service struct {
	storage   Storage
	directory UserDirectory
	counter   UnreadCounter
	log       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the Service.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithUserDirectory wires the user directory used to resolve broadcast
// selectors. Without it, only explicit-id broadcasts are possible and
// recipient existence is not verified.
func WithUserDirectory(d UserDirectory) ServiceOption {
	return func(s *Service) {
		s.directory = d
	}
}

// WithUnreadCounter wires an unread-count cache. The cache is best effort:
// read-through on UnreadCount, invalidated on every mutation that can change
// the count.
func WithUnreadCounter(c UnreadCounter) ServiceOption {
	return func(s *Service) {
		s.counter = c
	}
}

// NewService creates a notification service backed by the given storage.
func NewService(storage Storage, opts ...ServiceOption) (*Service, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	s := &Service{
		storage: storage,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateParams describes a notification to create. Zero-value optional
// fields receive defaults: priority normal, channels in_app, expiry
// creation+30d, short message derived from the message body.
type CreateParams struct {
	RecipientID  string
	SenderID     string
	Type         Type
	Title        string
	Message      string
	ShortMessage string
	Priority     Priority
	Context      Context
	Channels     []Channel
	ScheduledFor *time.Time
	ExpiresAt    *time.Time
}

func (p CreateParams) validate() error {
	rules := []validator.Rule{
		validator.RequiredString("recipient_id", p.RecipientID),
		validator.InList("type", p.Type, Types()),
		validator.RequiredString("title", p.Title),
		validator.MaxLenString("title", p.Title, MaxTitleLen),
		validator.RequiredString("message", p.Message),
		validator.MaxLenString("message", p.Message, MaxMessageLen),
		validator.MaxLenString("short_message", p.ShortMessage, MaxShortMessageLen),
	}
	rules = append(rules, p.templateRules()...)
	return validator.Apply(rules...)
}

// templateRules validates the fields shared by every recipient of a
// broadcast, excluding recipient identity.
func (p CreateParams) templateRules() []validator.Rule {
	rules := make([]validator.Rule, 0, 2+len(p.Channels))
	if p.Priority != "" {
		rules = append(rules, validator.InList("priority", p.Priority, Priorities()))
	}
	seen := make(map[Channel]bool, len(p.Channels))
	for _, ch := range p.Channels {
		rules = append(rules, validator.InList("channels", ch, Channels()))
		duplicate := seen[ch]
		seen[ch] = true
		rules = append(rules, validator.Rule{
			Check: func() bool { return !duplicate },
			Error: validator.ValidationError{
				Field:   "channels",
				Message: fmt.Sprintf("duplicate channel %q", ch),
			},
		})
	}
	return rules
}

// newNotification builds the entity with defaults applied. Callers validate
// params first.
func newNotification(p CreateParams, now time.Time) *Notification {
	priority := p.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	short := p.ShortMessage
	if short == "" {
		short = truncate(p.Message, MaxShortMessageLen)
	}

	expiresAt := now.Add(DefaultTTL)
	if p.ExpiresAt != nil {
		expiresAt = *p.ExpiresAt
	}

	channels := p.Channels
	if len(channels) == 0 {
		channels = []Channel{ChannelInApp}
	}
	deliveries := make(map[Channel]Delivery, len(channels))
	for _, ch := range channels {
		deliveries[ch] = Delivery{Status: ChannelStatusPending}
	}

	return &Notification{
		ID:           uuid.New().String(),
		RecipientID:  p.RecipientID,
		SenderID:     p.SenderID,
		Type:         p.Type,
		Priority:     priority,
		Title:        p.Title,
		Message:      p.Message,
		ShortMessage: short,
		Context:      p.Context,
		Deliveries:   deliveries,
		Status:       StatusPending,
		ScheduledFor: p.ScheduledFor,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// truncate shortens s to at most max runes, replacing the tail with "..."
// when anything was cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

// Create validates the params and persists a new pending notification.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Notification, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	n := newNotification(p, time.Now())
	if err := s.storage.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	s.invalidateCount(ctx, n.RecipientID)
	s.log.DebugContext(ctx, "notification created",
		logger.NotificationID(n.ID),
		logger.RecipientID(n.RecipientID),
		logger.NotificationType(string(n.Type)),
	)
	return n, nil
}

// Schedule persists a notification whose delivery is deferred until the
// given time. The record stays pending and inert until the delivery worker
// observes the send time has passed.
func (s *Service) Schedule(ctx context.Context, p CreateParams, at time.Time) (*Notification, error) {
	p.ScheduledFor = &at
	return s.Create(ctx, p)
}

// Get retrieves a notification on behalf of its recipient.
func (s *Service) Get(ctx context.Context, recipientID, id string) (*Notification, error) {
	n, err := s.owned(ctx, recipientID, id)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// MarkRead records the recipient's read timestamp. Idempotent: marking an
// already-read notification is a no-op.
func (s *Service) MarkRead(ctx context.Context, recipientID, id string) error {
	n, err := s.owned(ctx, recipientID, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if !n.MarkAsRead(now) {
		return nil
	}
	if err := s.storage.SetRead(ctx, id, now); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	s.invalidateCount(ctx, recipientID)
	return nil
}

// MarkClicked records the recipient's click timestamp. The aggregate status
// is unaffected.
func (s *Service) MarkClicked(ctx context.Context, recipientID, id string) error {
	n, err := s.owned(ctx, recipientID, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if !n.MarkAsClicked(now) {
		return nil
	}
	if err := s.storage.SetClicked(ctx, id, now); err != nil {
		return fmt.Errorf("failed to mark notification clicked: %w", err)
	}
	return nil
}

// Dismiss archives the notification for the recipient without deleting it.
func (s *Service) Dismiss(ctx context.Context, recipientID, id string) error {
	n, err := s.owned(ctx, recipientID, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if !n.Dismiss(now) {
		return nil
	}
	if err := s.storage.SetDismissed(ctx, id, now); err != nil {
		return fmt.Errorf("failed to dismiss notification: %w", err)
	}
	return nil
}

// Delete removes the notification on behalf of its recipient.
func (s *Service) Delete(ctx context.Context, recipientID, id string) error {
	if _, err := s.owned(ctx, recipientID, id); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	s.invalidateCount(ctx, recipientID)
	return nil
}

// Cancel moves a pending notification to cancelled before the delivery
// worker observes it. Best effort: a worker that already claimed the record
// may still deliver it.
func (s *Service) Cancel(ctx context.Context, id string) error {
	n, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := n.Cancel(time.Now()); err != nil {
		return err
	}
	if err := s.storage.SetStatus(ctx, id, StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel notification: %w", err)
	}
	s.invalidateCount(ctx, n.RecipientID)
	return nil
}

// Reschedule moves the send time and resets the aggregate status to pending.
func (s *Service) Reschedule(ctx context.Context, id string, at time.Time) error {
	n, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := n.Reschedule(at, time.Now()); err != nil {
		return err
	}
	if err := s.storage.SetSchedule(ctx, id, &at, StatusPending); err != nil {
		return fmt.Errorf("failed to reschedule notification: %w", err)
	}
	s.invalidateCount(ctx, n.RecipientID)
	return nil
}

// UpdateChannelStatus records a per-channel delivery outcome, typically
// reported by the delivery worker, and persists any aggregate promotion the
// outcome triggers. Two concurrent updates may both observe "all channels
// sent" and both promote; the promotion is idempotent so the race is
// harmless.
func (s *Service) UpdateChannelStatus(ctx context.Context, id string, ch Channel, status ChannelStatus, meta DeliveryMeta) error {
	n, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := n.SetChannelStatus(ch, status, meta, time.Now()); err != nil {
		return err
	}
	if err := s.storage.SetChannel(ctx, id, ch, n.Deliveries[ch], n.Status); err != nil {
		return fmt.Errorf("failed to update channel status: %w", err)
	}
	return nil
}

// DuePending returns pending notifications whose send time has arrived,
// highest priority first. This is the delivery worker's poll query.
func (s *Service) DuePending(ctx context.Context, limit int) ([]Notification, error) {
	return s.storage.ListDue(ctx, time.Now(), limit)
}

// PurgeExpired removes notifications past their TTL that were read,
// dismissed or cancelled, and returns the number removed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := s.storage.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired notifications: %w", err)
	}
	if removed > 0 {
		s.log.InfoContext(ctx, "purged expired notifications", logger.Count(int(removed)))
	}
	return removed, nil
}

func (s *Service) get(ctx context.Context, id string) (*Notification, error) {
	n, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	return n, nil
}

// owned loads a notification and verifies the caller is its recipient.
func (s *Service) owned(ctx context.Context, recipientID, id string) (*Notification, error) {
	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != recipientID {
		return nil, ErrAccessDenied
	}
	return n, nil
}

// invalidateCount drops the cached unread count after a mutation. Cache
// failures are logged and ignored; storage remains the source of truth.
func (s *Service) invalidateCount(ctx context.Context, recipientID string) {
	if s.counter == nil {
		return
	}
	if err := s.counter.Invalidate(ctx, recipientID); err != nil {
		s.log.WarnContext(ctx, "failed to invalidate unread count cache",
			logger.RecipientID(recipientID),
			logger.Error(err),
		)
	}
}
