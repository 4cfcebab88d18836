package notification

import "errors"

var (
	// ErrNotFound is returned when a notification does not exist.
	ErrNotFound = errors.New("notification not found")

	// ErrAccessDenied is returned when a caller operates on a notification
	// that belongs to a different recipient.
	ErrAccessDenied = errors.New("notification belongs to a different recipient")

	// ErrInvalidTransition is returned when an aggregate status change is not
	// allowed by the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrChannelNotRequested is returned when a channel status update targets
	// a channel the notification was not created with.
	ErrChannelNotRequested = errors.New("channel was not requested for this notification")

	// ErrInvalidSelector is returned when a broadcast selector specifies no
	// audience or more than one audience kind.
	ErrInvalidSelector = errors.New("recipient selector must specify exactly one audience")

	// ErrDirectoryNotConfigured is returned when a broadcast requires the user
	// directory but the service was built without one.
	ErrDirectoryNotConfigured = errors.New("user directory is not configured")

	// ErrStorageNil is returned when constructing a service without storage.
	ErrStorageNil = errors.New("storage is required")
)
