package broadcast

import "context"

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages published to one topic.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel on which published messages arrive.
	// The channel is closed when the subscriber is closed.
	Receive() <-chan Message[T]

	// Close closes the subscriber and releases resources. Idempotent.
	Close()
}

// Publisher publishes messages to topic subscribers.
// Implementations should handle slow consumers by dropping messages rather
// than blocking the publisher.
type Publisher[T any] interface {
	// Publish sends a message to every subscriber of the topic. Messages may
	// be dropped for slow consumers.
	Publish(ctx context.Context, topic string, msg Message[T]) error

	// Subscribe creates a subscriber for the topic. The subscription is
	// cleaned up when the context is cancelled or the subscriber is closed.
	Subscribe(ctx context.Context, topic string) (Subscriber[T], error)

	// Close shuts down the publisher and closes all subscribers.
	Close() error
}
