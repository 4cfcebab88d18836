package broadcast

import (
	"context"
	"sync"
)

// Hub is an in-memory, topic-keyed Publisher. Each topic (typically a
// recipient id) has its own subscriber set, so a message published for one
// recipient never reaches another recipient's subscribers.
//
// Sends are non-blocking: when a subscriber's buffer is full the message is
// dropped for that subscriber. Consumers that care about completeness must
// reconcile against storage, which is the source of truth anyway.
type Hub[T any] struct {
	topics     map[string]map[*subscriber[T]]struct{}
	bufferSize int
	closed     bool
	mu         sync.RWMutex
	cleanupWg  sync.WaitGroup
}

type subscriber[T any] struct {
	hub    *Hub[T]
	topic  string
	ch     chan Message[T]
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() {
	s.hub.unsubscribe(s)
}

// send delivers non-blocking; a full buffer drops the message.
func (s *subscriber[T]) send(msg Message[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	default:
	}
}

func (s *subscriber[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		close(s.done)
		s.closed = true
	}
}

// NewHub creates an in-memory hub. bufferSize determines each subscriber's
// channel buffer; a minimum of 1 is enforced to keep sends non-blocking.
func NewHub[T any](bufferSize int) *Hub[T] {
	return &Hub[T]{
		topics:     make(map[string]map[*subscriber[T]]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

func (h *Hub[T]) Subscribe(ctx context.Context, topic string) (Subscriber[T], error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	sub := &subscriber[T]{
		hub:   h,
		topic: topic,
		ch:    make(chan Message[T], h.bufferSize),
		done:  make(chan struct{}),
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*subscriber[T]]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}

	// Auto-cleanup on context cancellation. The goroutine also exits when the
	// subscriber is closed by any other path, so Close never waits on a
	// context that outlives the hub.
	if ctx.Done() != nil {
		h.cleanupWg.Add(1)
		go func() {
			defer h.cleanupWg.Done()
			select {
			case <-ctx.Done():
				h.unsubscribe(sub)
			case <-sub.done:
			}
		}()
	}

	return sub, nil
}

func (h *Hub[T]) Publish(ctx context.Context, topic string, msg Message[T]) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}

	for sub := range h.topics[topic] {
		sub.send(msg)
	}
	return nil
}

func (h *Hub[T]) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true

	for _, subs := range h.topics {
		for sub := range subs {
			sub.close()
		}
	}
	clear(h.topics)
	h.mu.Unlock()

	// Wait for context-cancellation cleanups so Close leaves no goroutines
	// behind.
	h.cleanupWg.Wait()
	return nil
}

func (h *Hub[T]) unsubscribe(sub *subscriber[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[sub.topic]; ok {
		if _, present := subs[sub]; present {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.topics, sub.topic)
			}
		}
	}
	sub.close()
}

var _ Publisher[any] = (*Hub[any])(nil)
