package delivery

import "errors"

var (
	// ErrDispatcherNil is returned when a worker is created without a dispatcher.
	ErrDispatcherNil = errors.New("dispatcher cannot be nil")
	// ErrNoSenders is returned when a worker is started with no registered senders.
	ErrNoSenders = errors.New("no senders registered")
	// ErrNoSenderRegistered marks a channel failure caused by a missing sender.
	ErrNoSenderRegistered = errors.New("no sender registered for channel")

	// ErrInvalidConfig is returned when a sender's configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid sender configuration")
	// ErrNoEmailAddress is returned when the recipient has no resolvable email address.
	ErrNoEmailAddress = errors.New("recipient has no email address")
	// ErrFailedToSendEmail is returned when the email provider rejects the message.
	ErrFailedToSendEmail = errors.New("failed to send email")
	// ErrWebhookDeliveryFailed is returned when the webhook endpoint does not accept the payload.
	ErrWebhookDeliveryFailed = errors.New("webhook delivery failed")
)
