package notification

import (
	"time"
)

const (
	// MaxTitleLen bounds the title field.
	MaxTitleLen = 200
	// MaxMessageLen bounds the message body.
	MaxMessageLen = 1000
	// MaxShortMessageLen bounds the derived short message.
	MaxShortMessageLen = 100

	// DefaultTTL is how long a notification lives before the expiry sweep
	// may remove it, counted from creation.
	DefaultTTL = 30 * 24 * time.Hour
)

// Context carries optional references tying a notification to platform
// entities. All fields are optional; Metadata holds free-form string pairs
// that don't warrant their own field.
type Context struct {
	CourseID       string            `json:"course_id,omitempty"`
	AssignmentID   string            `json:"assignment_id,omitempty"`
	DiscussionID   string            `json:"discussion_id,omitempty"`
	CertificateID  string            `json:"certificate_id,omitempty"`
	LearningPathID string            `json:"learning_path_id,omitempty"`
	URL            string            `json:"url,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// IsZero reports whether the context carries no references at all.
func (c Context) IsZero() bool {
	return c.CourseID == "" && c.AssignmentID == "" && c.DiscussionID == "" &&
		c.CertificateID == "" && c.LearningPathID == "" && c.URL == "" &&
		len(c.Metadata) == 0
}

// Delivery tracks one delivery attempt through one channel.
type Delivery struct {
	Status        ChannelStatus `json:"status"`
	SentAt        *time.Time    `json:"sent_at,omitempty"`
	DeliveredAt   *time.Time    `json:"delivered_at,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	TrackingID    string        `json:"tracking_id,omitempty"`
}

// DeliveryMeta carries optional detail recorded alongside a channel status
// change.
type DeliveryMeta struct {
	FailureReason string
	TrackingID    string
}

// Notification is one message instance addressed to exactly one recipient.
//
// Deliveries is keyed by channel, which makes a duplicate channel request
// unrepresentable. ExpiresAt and ShortMessage are always populated (see
// newNotification defaults).
type Notification struct {
	ID           string               `json:"id"`
	RecipientID  string               `json:"recipient_id"`
	SenderID     string               `json:"sender_id,omitempty"`
	Type         Type                 `json:"type"`
	Priority     Priority             `json:"priority"`
	Title        string               `json:"title"`
	Message      string               `json:"message"`
	ShortMessage string               `json:"short_message"`
	Context      Context              `json:"context,omitzero"`
	Deliveries   map[Channel]Delivery `json:"deliveries"`
	Status       Status               `json:"status"`
	ScheduledFor *time.Time           `json:"scheduled_for,omitempty"`
	ExpiresAt    time.Time            `json:"expires_at"`
	ReadAt       *time.Time           `json:"read_at,omitempty"`
	ClickedAt    *time.Time           `json:"clicked_at,omitempty"`
	DismissedAt  *time.Time           `json:"dismissed_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// IsRead reports whether the recipient has read the notification.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// IsDismissed reports whether the recipient archived the notification.
func (n *Notification) IsDismissed() bool {
	return n.DismissedAt != nil
}

// IsExpired reports whether the notification's TTL has passed at the given
// instant.
func (n *Notification) IsExpired(now time.Time) bool {
	return now.After(n.ExpiresAt)
}

// IsDue reports whether a pending notification is ready for delivery at the
// given instant. Scheduled notifications stay inert until their send time.
func (n *Notification) IsDue(now time.Time) bool {
	if n.Status != StatusPending {
		return false
	}
	return n.ScheduledFor == nil || !n.ScheduledFor.After(now)
}

// MarkAsRead records the read timestamp and moves the aggregate status to
// read. Idempotent: the first timestamp wins and repeated calls report false.
func (n *Notification) MarkAsRead(now time.Time) bool {
	if n.ReadAt != nil {
		return false
	}
	n.ReadAt = &now
	n.Status = StatusRead
	n.UpdatedAt = now
	return true
}

// MarkAsClicked records the click timestamp. The aggregate status is
// unaffected; the first timestamp wins.
func (n *Notification) MarkAsClicked(now time.Time) bool {
	if n.ClickedAt != nil {
		return false
	}
	n.ClickedAt = &now
	n.UpdatedAt = now
	return true
}

// Dismiss archives the notification for the recipient without deleting it.
// The first timestamp wins.
func (n *Notification) Dismiss(now time.Time) bool {
	if n.DismissedAt != nil {
		return false
	}
	n.DismissedAt = &now
	n.UpdatedAt = now
	return true
}

// Cancel moves a pending notification to cancelled. Cancelling is only
// meaningful before delivery starts; any other state is rejected.
func (n *Notification) Cancel(now time.Time) error {
	if err := n.transition(StatusCancelled); err != nil {
		return err
	}
	n.UpdatedAt = now
	return nil
}

// Reschedule moves the send time and resets the aggregate status back to
// pending so the delivery worker picks the notification up again.
func (n *Notification) Reschedule(at time.Time, now time.Time) error {
	if n.Status != StatusPending {
		if err := n.transition(StatusPending); err != nil {
			return err
		}
	}
	n.ScheduledFor = &at
	n.UpdatedAt = now
	return nil
}

// SetChannelStatus updates the delivery record for one channel and promotes
// the aggregate status when the per-channel outcomes warrant it:
//
//   - all channels sent-or-delivered while the aggregate is still pending
//     promotes it to sent;
//   - all channels delivered promotes sent to delivered;
//   - all channels failed moves a pending notification to failed.
//
// A partial channel failure never demotes the aggregate.
func (n *Notification) SetChannelStatus(ch Channel, status ChannelStatus, meta DeliveryMeta, now time.Time) error {
	d, ok := n.Deliveries[ch]
	if !ok {
		return ErrChannelNotRequested
	}

	d.Status = status
	switch status {
	case ChannelStatusSent:
		d.SentAt = &now
		d.FailureReason = ""
	case ChannelStatusDelivered:
		if d.SentAt == nil {
			d.SentAt = &now
		}
		d.DeliveredAt = &now
		d.FailureReason = ""
	case ChannelStatusFailed:
		d.FailureReason = meta.FailureReason
	}
	if meta.TrackingID != "" {
		d.TrackingID = meta.TrackingID
	}
	n.Deliveries[ch] = d
	n.UpdatedAt = now

	switch {
	case n.Status == StatusPending && n.AllChannelsSent():
		n.Status = StatusSent
	case n.Status == StatusSent && n.allChannelsDelivered():
		n.Status = StatusDelivered
	case n.Status == StatusPending && n.allChannelsFailed():
		n.Status = StatusFailed
	}

	return nil
}

// AllChannelsSent reports whether every requested channel reached sent or
// delivered.
func (n *Notification) AllChannelsSent() bool {
	if len(n.Deliveries) == 0 {
		return false
	}
	for _, d := range n.Deliveries {
		if d.Status != ChannelStatusSent && d.Status != ChannelStatusDelivered {
			return false
		}
	}
	return true
}

func (n *Notification) allChannelsDelivered() bool {
	if len(n.Deliveries) == 0 {
		return false
	}
	for _, d := range n.Deliveries {
		if d.Status != ChannelStatusDelivered {
			return false
		}
	}
	return true
}

func (n *Notification) allChannelsFailed() bool {
	if len(n.Deliveries) == 0 {
		return false
	}
	for _, d := range n.Deliveries {
		if d.Status != ChannelStatusFailed {
			return false
		}
	}
	return true
}

// PendingChannels returns the channels that have not been attempted yet, in
// stable order.
func (n *Notification) PendingChannels() []Channel {
	var out []Channel
	for _, ch := range Channels() {
		if d, ok := n.Deliveries[ch]; ok && d.Status == ChannelStatusPending {
			out = append(out, ch)
		}
	}
	return out
}
