package delivery

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/classkit/pkg/broadcast"
	"github.com/dmitrymomot/classkit/pkg/notification"
)

// InAppSender delivers notifications to live in-app consumers through a
// broadcast publisher, one topic per recipient. The in-app channel succeeds
// even with no subscriber online: persistence already happened at creation,
// the publish only feeds realtime streams.
type InAppSender struct {
	publisher broadcast.Publisher[notification.Notification]
}

// NewInAppSender creates an in-app sender over the given publisher.
func NewInAppSender(publisher broadcast.Publisher[notification.Notification]) (*InAppSender, error) {
	if publisher == nil {
		return nil, fmt.Errorf("%w: publisher is required", ErrInvalidConfig)
	}
	return &InAppSender{publisher: publisher}, nil
}

func (s *InAppSender) Channel() notification.Channel { return notification.ChannelInApp }

func (s *InAppSender) Send(ctx context.Context, n notification.Notification) (string, error) {
	if err := s.publisher.Publish(ctx, n.RecipientID, broadcast.Message[notification.Notification]{Data: n}); err != nil {
		return "", fmt.Errorf("failed to publish in-app notification: %w", err)
	}
	return "", nil
}

var _ Sender = (*InAppSender)(nil)
