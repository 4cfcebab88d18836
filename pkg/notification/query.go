package notification

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/classkit/pkg/logger"
)

const (
	// DefaultPageSize is applied when a list request omits the limit.
	DefaultPageSize = 20
	// MaxPageSize caps the page size regardless of what the caller asks for.
	MaxPageSize = 50
)

// List returns one page of the recipient's notification feed, newest first,
// with the total and unread counts for the same filter.
func (s *Service) List(ctx context.Context, recipientID string, opts ListOptions) (*Page, error) {
	if recipientID == "" {
		return nil, ErrNotFound
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultPageSize
	}
	if opts.Limit > MaxPageSize {
		opts.Limit = MaxPageSize
	}

	items, total, err := s.storage.List(ctx, recipientID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.storage.CountUnread(ctx, recipientID, opts.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &Page{
		Items:  items,
		Total:  total,
		Unread: unread,
		Page:   opts.Page,
		Limit:  opts.Limit,
	}, nil
}

// UnreadCount returns the number of the recipient's notifications with no
// read timestamp and a status other than cancelled. The cached count is used
// only for the unfiltered query; type-scoped counts always hit storage.
func (s *Service) UnreadCount(ctx context.Context, recipientID string, t Type) (int64, error) {
	if s.counter != nil && t == "" {
		if count, ok, err := s.counter.Get(ctx, recipientID); err == nil && ok {
			return count, nil
		} else if err != nil {
			s.log.WarnContext(ctx, "unread count cache read failed",
				logger.RecipientID(recipientID),
				logger.Error(err),
			)
		}
	}

	count, err := s.storage.CountUnread(ctx, recipientID, t)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if s.counter != nil && t == "" {
		if err := s.counter.Set(ctx, recipientID, count); err != nil {
			s.log.WarnContext(ctx, "unread count cache write failed",
				logger.RecipientID(recipientID),
				logger.Error(err),
			)
		}
	}
	return count, nil
}

// MarkAllRead flips every matching unread notification of the recipient to
// read and returns the number modified.
func (s *Service) MarkAllRead(ctx context.Context, recipientID string, opts MarkAllReadOptions) (int64, error) {
	modified, err := s.storage.MarkAllRead(ctx, recipientID, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	if modified > 0 {
		s.invalidateCount(ctx, recipientID)
	}
	return modified, nil
}

// Analytics aggregates engagement figures (totals, read/click rates, type
// and priority distributions) over the filtered set.
func (s *Service) Analytics(ctx context.Context, f AnalyticsFilter) (*Report, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		f.From, f.To = f.To, f.From
	}

	report, err := s.storage.Analytics(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate notification analytics: %w", err)
	}
	report.Finalize()
	return report, nil
}
