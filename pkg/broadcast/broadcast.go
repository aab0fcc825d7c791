package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns a channel for receiving broadcast messages.
	Receive(ctx context.Context) <-chan Message[T]

	// Close closes the subscriber and releases resources.
	// After Close, the receive channel is closed. Close is idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers.
// A full subscriber buffer drops the message for that subscriber only.
type Broadcaster[T any] interface {
	// Subscribe creates a new subscriber that will receive all broadcast messages.
	// The subscription ends when ctx is cancelled.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast sends a message to all active subscribers without blocking.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}

type subscriber[T any] struct {
	ch      chan Message[T]
	closed  bool
	dropped uint64
	mu      sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch: make(chan Message[T], bufferSize),
	}
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send reports false only when the subscriber is closed. A full buffer drops msg.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false
	}

	select {
	case s.ch <- msg:
		s.mu.RUnlock()
		return true
	default:
	}
	s.mu.RUnlock()

	s.mu.Lock()
	s.dropped++
	s.mu.Unlock()
	return true
}
