package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/classkit/pkg/logger"
	"github.com/dmitrymomot/classkit/pkg/validator"
)

// RecipientSelector specifies the audience of a broadcast: every active
// user, users holding one of a set of roles, or an explicit id list.
// Exactly one audience kind must be set. Resolution happens once at
// broadcast time; there is no live recomputation.
type RecipientSelector struct {
	All   bool
	Roles []Role
	IDs   []string
}

// AllUsers selects every active (non-deleted) user.
func AllUsers() RecipientSelector {
	return RecipientSelector{All: true}
}

// ByRole selects active users holding any of the given roles.
func ByRole(roles ...Role) RecipientSelector {
	return RecipientSelector{Roles: roles}
}

// ToUsers selects an explicit list of user ids.
func ToUsers(ids ...string) RecipientSelector {
	return RecipientSelector{IDs: ids}
}

func (sel RecipientSelector) validate() error {
	kinds := 0
	if sel.All {
		kinds++
	}
	if len(sel.Roles) > 0 {
		kinds++
	}
	if len(sel.IDs) > 0 {
		kinds++
	}
	if kinds != 1 {
		return ErrInvalidSelector
	}

	roles := []Role{RoleStudent, RoleInstructor, RoleAdmin}
	for _, r := range sel.Roles {
		if err := validator.Apply(validator.InList("roles", r, roles)); err != nil {
			return err
		}
	}
	return nil
}

// BroadcastResult tallies a broadcast fan-out. Created+Failed equals the
// number of resolved recipients.
type BroadcastResult struct {
	Recipients int `json:"recipients"`
	Created    int `json:"created"`
	Failed     int `json:"failed"`
}

// Broadcast resolves the selector to concrete recipients and creates one
// notification per recipient from the shared params (RecipientID in params
// is ignored).
//
// Fan-out is not atomic: a failure to create one recipient's notification is
// counted and the rest continue. The caller receives a tally, never a
// partial-failure error. A crash mid-broadcast leaves a partial set of
// notifications behind, which is accepted best-effort semantics.
func (s *Service) Broadcast(ctx context.Context, sel RecipientSelector, p CreateParams) (*BroadcastResult, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}

	rules := []validator.Rule{
		validator.InList("type", p.Type, Types()),
		validator.RequiredString("title", p.Title),
		validator.MaxLenString("title", p.Title, MaxTitleLen),
		validator.RequiredString("message", p.Message),
		validator.MaxLenString("message", p.Message, MaxMessageLen),
		validator.MaxLenString("short_message", p.ShortMessage, MaxShortMessageLen),
	}
	rules = append(rules, p.templateRules()...)
	if err := validator.Apply(rules...); err != nil {
		return nil, err
	}

	recipients, err := s.resolveRecipients(ctx, sel)
	if err != nil {
		return nil, err
	}

	result := &BroadcastResult{Recipients: len(recipients)}
	now := time.Now()
	for _, recipientID := range recipients {
		if !s.recipientExists(ctx, sel, recipientID) {
			result.Failed++
			s.log.WarnContext(ctx, "broadcast recipient does not exist",
				logger.RecipientID(recipientID),
			)
			continue
		}

		params := p
		params.RecipientID = recipientID
		n := newNotification(params, now)
		if err := s.storage.Create(ctx, n); err != nil {
			result.Failed++
			s.log.ErrorContext(ctx, "failed to create broadcast notification",
				logger.RecipientID(recipientID),
				logger.NotificationType(string(p.Type)),
				logger.Error(err),
			)
			continue
		}
		result.Created++
		s.invalidateCount(ctx, recipientID)
	}

	s.log.InfoContext(ctx, "broadcast completed",
		logger.NotificationType(string(p.Type)),
		logger.Count(result.Created),
	)
	return result, nil
}

// resolveRecipients expands the selector into concrete user ids. Role and
// all-user audiences require the directory; explicit lists do not.
func (s *Service) resolveRecipients(ctx context.Context, sel RecipientSelector) ([]string, error) {
	if len(sel.IDs) > 0 {
		return sel.IDs, nil
	}
	if s.directory == nil {
		return nil, ErrDirectoryNotConfigured
	}

	ids, err := s.directory.ActiveUserIDs(ctx, sel.Roles...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve broadcast recipients: %w", err)
	}
	return ids, nil
}

// recipientExists verifies explicit-list targets against the directory.
// Directory-resolved audiences are trusted as-is, and without a directory
// the check is skipped.
func (s *Service) recipientExists(ctx context.Context, sel RecipientSelector, id string) bool {
	if len(sel.IDs) == 0 || s.directory == nil {
		return true
	}
	ok, err := s.directory.Exists(ctx, id)
	if err != nil {
		s.log.WarnContext(ctx, "failed to verify broadcast recipient",
			logger.RecipientID(id),
			logger.Error(err),
		)
		return false
	}
	return ok
}
