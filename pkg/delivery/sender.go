package delivery

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

// Sender delivers a notification over one channel. Implementations return a
// provider-side tracking id when the transport exposes one; an empty id is
// valid for transports without tracking.
type Sender interface {
	// Channel reports which delivery channel this sender serves.
	Channel() notification.Channel

	// Send delivers the notification. A returned error marks the channel
	// failed with the error text as the failure reason.
	Send(ctx context.Context, n notification.Notification) (trackingID string, err error)
}

// NoopSender accepts every notification without delivering it anywhere.
// Useful for tests and for channels whose transport is not wired yet.
type NoopSender struct {
	channel notification.Channel
}

// NewNoopSender creates a no-op sender for the given channel.
func NewNoopSender(ch notification.Channel) *NoopSender {
	return &NoopSender{channel: ch}
}

func (s *NoopSender) Channel() notification.Channel { return s.channel }

func (s *NoopSender) Send(ctx context.Context, n notification.Notification) (string, error) {
	return uuid.New().String(), nil
}

var _ Sender = (*NoopSender)(nil)
