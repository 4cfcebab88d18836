package notification

// Type classifies a notification. Values span the course, assignment,
// discussion, system, social, instructor and general categories used across
// the platform.
type Type string

const (
	// Course lifecycle.
	TypeCourseEnrollment Type = "course_enrollment"
	TypeCourseUpdate     Type = "course_update"
	TypeCourseCompleted  Type = "course_completed"
	TypeCoursePublished  Type = "course_published"
	TypeCourseReview     Type = "course_review"

	// Assignments.
	TypeAssignmentCreated   Type = "assignment_created"
	TypeAssignmentDue       Type = "assignment_due"
	TypeAssignmentGraded    Type = "assignment_graded"
	TypeAssignmentSubmitted Type = "assignment_submitted"
	TypeAssignmentOverdue   Type = "assignment_overdue"
	TypeQuizResult          Type = "quiz_result"

	// Discussions.
	TypeDiscussionReply    Type = "discussion_reply"
	TypeDiscussionMention  Type = "discussion_mention"
	TypeDiscussionUpvote   Type = "discussion_upvote"
	TypeDiscussionAnswered Type = "discussion_answered"

	// Achievements.
	TypeCertificateIssued    Type = "certificate_issued"
	TypeLearningPathProgress Type = "learning_path_progress"
	TypeLearningPathComplete Type = "learning_path_complete"

	// System.
	TypeSystemAnnouncement Type = "system_announcement"
	TypeSystemMaintenance  Type = "system_maintenance"
	TypeAccountSecurity    Type = "account_security"

	// Social.
	TypeNewFollower   Type = "new_follower"
	TypeDirectMessage Type = "direct_message"

	// Instructor-facing.
	TypeInstructorPayout Type = "instructor_payout"
	TypeStudentQuestion  Type = "student_question"

	// General.
	TypeReminder Type = "reminder"
	TypeGeneral  Type = "general"
)

// Types returns all known notification types.
func Types() []Type {
	return []Type{
		TypeCourseEnrollment, TypeCourseUpdate, TypeCourseCompleted,
		TypeCoursePublished, TypeCourseReview,
		TypeAssignmentCreated, TypeAssignmentDue, TypeAssignmentGraded,
		TypeAssignmentSubmitted, TypeAssignmentOverdue, TypeQuizResult,
		TypeDiscussionReply, TypeDiscussionMention, TypeDiscussionUpvote,
		TypeDiscussionAnswered,
		TypeCertificateIssued, TypeLearningPathProgress, TypeLearningPathComplete,
		TypeSystemAnnouncement, TypeSystemMaintenance, TypeAccountSecurity,
		TypeNewFollower, TypeDirectMessage,
		TypeInstructorPayout, TypeStudentQuestion,
		TypeReminder, TypeGeneral,
	}
}

// Valid reports whether t is a known notification type.
func (t Type) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Priority represents the notification priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities returns all priority levels, lowest first.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank returns a numeric weight for ordering: higher means more urgent.
// Stored alongside the priority so the backing store can sort without
// knowing the enum ordering.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityNormal:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return 1
}

// Status is the aggregate lifecycle state of a notification, distinct from
// any single channel's delivery status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Channel is one delivery transport through which a notification may be
// delivered.
type Channel string

const (
	ChannelInApp   Channel = "in_app"
	ChannelEmail   Channel = "email"
	ChannelPush    Channel = "push"
	ChannelSMS     Channel = "sms"
	ChannelWebhook Channel = "webhook"
)

// Channels returns all supported delivery channels.
func Channels() []Channel {
	return []Channel{ChannelInApp, ChannelEmail, ChannelPush, ChannelSMS, ChannelWebhook}
}

// Valid reports whether c is a supported delivery channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelPush, ChannelSMS, ChannelWebhook:
		return true
	}
	return false
}

// ChannelStatus tracks the outcome of one delivery attempt on one channel.
type ChannelStatus string

const (
	ChannelStatusPending   ChannelStatus = "pending"
	ChannelStatusSent      ChannelStatus = "sent"
	ChannelStatusDelivered ChannelStatus = "delivered"
	ChannelStatusFailed    ChannelStatus = "failed"
)
