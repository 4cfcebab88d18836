// Package notification implements the learning platform's notification
// subsystem: per-recipient message records with per-channel delivery
// tracking, scheduled delivery, broadcast fan-out and engagement analytics.
//
// The package is transport-agnostic. HTTP handlers, authentication and the
// actual channel transports (email, push, SMS, webhooks) are external
// collaborators; this package owns the records and their lifecycle.
//
// # Architecture
//
//   - Notification: the domain entity, one message to one recipient, with a
//     per-channel Deliveries map and an aggregate lifecycle status
//   - Storage: persistence interface with field-scoped atomic mutations
//     (MemoryStorage here, MongoDB in the mongodb subpackage)
//   - Service: orchestration - create, schedule, broadcast, lifecycle
//     mutations, queries and analytics
//
// # Lifecycle
//
// The aggregate status moves forward only:
//
//	pending → sent → delivered → read
//
// with two exceptions: Cancel moves a pending notification to cancelled, and
// Reschedule moves a cancelled or failed one back to pending. Channel
// outcomes feed the aggregate through SetChannelStatus: the aggregate
// becomes sent only once every requested channel is sent or delivered, and a
// partial channel failure never fails the aggregate.
//
// # Basic Usage
//
//	storage := notification.NewMemoryStorage()
//	svc, err := notification.NewService(storage,
//		notification.WithUserDirectory(directory),
//		notification.WithLogger(log),
//	)
//
//	n, err := svc.Create(ctx, notification.CreateParams{
//		RecipientID: "user-123",
//		Type:        notification.TypeAssignmentGraded,
//		Title:       "Assignment graded",
//		Message:     "Your submission for Week 3 has been graded.",
//		Channels:    []notification.Channel{notification.ChannelInApp, notification.ChannelEmail},
//	})
//
// # Broadcast
//
//	result, err := svc.Broadcast(ctx,
//		notification.ByRole(notification.RoleStudent),
//		notification.CreateParams{
//			Type:    notification.TypeSystemAnnouncement,
//			Title:   "Maintenance window",
//			Message: "The platform will be unavailable on Saturday night.",
//		})
//	// result.Created / result.Failed
//
// Fan-out is best effort: per-recipient failures are tallied, never raised.
//
// # Scheduled delivery
//
// Schedule stores a pending record with a future send time. The delivery
// worker (see the delivery package) polls Service.DuePending and reports
// outcomes through Service.UpdateChannelStatus. Cancellation of a scheduled
// notification is simply setting its status before the worker observes it.
package notification
