package mongodb

import (
	"time"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

// document is the persisted shape of a notification. It mirrors the domain
// entity with two storage-specific additions: deliveries are an array of
// channel-keyed subdocuments (the positional operator needs an array), and
// the priority rank is denormalized so the due-notification query can sort
// without knowing the enum ordering.
type document struct {
	ID           string        `bson:"_id"`
	RecipientID  string        `bson:"recipient_id"`
	SenderID     string        `bson:"sender_id,omitempty"`
	Type         string        `bson:"type"`
	Priority     string        `bson:"priority"`
	PriorityRank int           `bson:"priority_rank"`
	Title        string        `bson:"title"`
	Message      string        `bson:"message"`
	ShortMessage string        `bson:"short_message"`
	Context      contextDoc    `bson:"context,omitempty"`
	Deliveries   []deliveryDoc `bson:"deliveries"`
	Status       string        `bson:"status"`
	ScheduledFor *time.Time    `bson:"scheduled_for,omitempty"`
	ExpiresAt    time.Time     `bson:"expires_at"`
	ReadAt       *time.Time    `bson:"read_at,omitempty"`
	ClickedAt    *time.Time    `bson:"clicked_at,omitempty"`
	DismissedAt  *time.Time    `bson:"dismissed_at,omitempty"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

type contextDoc struct {
	CourseID       string            `bson:"course_id,omitempty"`
	AssignmentID   string            `bson:"assignment_id,omitempty"`
	DiscussionID   string            `bson:"discussion_id,omitempty"`
	CertificateID  string            `bson:"certificate_id,omitempty"`
	LearningPathID string            `bson:"learning_path_id,omitempty"`
	URL            string            `bson:"url,omitempty"`
	Metadata       map[string]string `bson:"metadata,omitempty"`
}

type deliveryDoc struct {
	Channel       string     `bson:"channel"`
	Status        string     `bson:"status"`
	SentAt        *time.Time `bson:"sent_at,omitempty"`
	DeliveredAt   *time.Time `bson:"delivered_at,omitempty"`
	FailureReason string     `bson:"failure_reason,omitempty"`
	TrackingID    string     `bson:"tracking_id,omitempty"`
}

func toDocument(n *notification.Notification) document {
	doc := document{
		ID:           n.ID,
		RecipientID:  n.RecipientID,
		SenderID:     n.SenderID,
		Type:         string(n.Type),
		Priority:     string(n.Priority),
		PriorityRank: n.Priority.Rank(),
		Title:        n.Title,
		Message:      n.Message,
		ShortMessage: n.ShortMessage,
		Context: contextDoc{
			CourseID:       n.Context.CourseID,
			AssignmentID:   n.Context.AssignmentID,
			DiscussionID:   n.Context.DiscussionID,
			CertificateID:  n.Context.CertificateID,
			LearningPathID: n.Context.LearningPathID,
			URL:            n.Context.URL,
			Metadata:       n.Context.Metadata,
		},
		Status:       string(n.Status),
		ScheduledFor: n.ScheduledFor,
		ExpiresAt:    n.ExpiresAt,
		ReadAt:       n.ReadAt,
		ClickedAt:    n.ClickedAt,
		DismissedAt:  n.DismissedAt,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}

	// Stable channel order keeps documents diffable across updates.
	for _, ch := range notification.Channels() {
		d, ok := n.Deliveries[ch]
		if !ok {
			continue
		}
		doc.Deliveries = append(doc.Deliveries, deliveryDoc{
			Channel:       string(ch),
			Status:        string(d.Status),
			SentAt:        d.SentAt,
			DeliveredAt:   d.DeliveredAt,
			FailureReason: d.FailureReason,
			TrackingID:    d.TrackingID,
		})
	}
	return doc
}

func (doc document) toDomain() notification.Notification {
	n := notification.Notification{
		ID:           doc.ID,
		RecipientID:  doc.RecipientID,
		SenderID:     doc.SenderID,
		Type:         notification.Type(doc.Type),
		Priority:     notification.Priority(doc.Priority),
		Title:        doc.Title,
		Message:      doc.Message,
		ShortMessage: doc.ShortMessage,
		Context: notification.Context{
			CourseID:       doc.Context.CourseID,
			AssignmentID:   doc.Context.AssignmentID,
			DiscussionID:   doc.Context.DiscussionID,
			CertificateID:  doc.Context.CertificateID,
			LearningPathID: doc.Context.LearningPathID,
			URL:            doc.Context.URL,
			Metadata:       doc.Context.Metadata,
		},
		Deliveries:   make(map[notification.Channel]notification.Delivery, len(doc.Deliveries)),
		Status:       notification.Status(doc.Status),
		ScheduledFor: doc.ScheduledFor,
		ExpiresAt:    doc.ExpiresAt,
		ReadAt:       doc.ReadAt,
		ClickedAt:    doc.ClickedAt,
		DismissedAt:  doc.DismissedAt,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	for _, d := range doc.Deliveries {
		n.Deliveries[notification.Channel(d.Channel)] = notification.Delivery{
			Status:        notification.ChannelStatus(d.Status),
			SentAt:        d.SentAt,
			DeliveredAt:   d.DeliveredAt,
			FailureReason: d.FailureReason,
			TrackingID:    d.TrackingID,
		}
	}
	return n
}
