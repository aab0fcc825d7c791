package broadcast

import (
	"context"
	"log/slog"
	"time"
)

// Event is a named signal. It carries no payload: receivers re-query whatever state the
// name refers to.
type Event struct {
	Name string
	At   time.Time
}

// Bus publishes named events to subscribers that filter by name.
type Bus struct {
	broadcaster *MemoryBroadcaster[Event]
	bufferSize  int
	logger      *slog.Logger
	now         func() time.Time
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBufferSize sets the per-subscription buffer.
func WithBufferSize(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// WithBusLogger sets the logger used to trace published events.
func WithBusLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) BusOption {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBus creates an in-memory event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		bufferSize: 16,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.broadcaster = NewMemoryBroadcaster[Event](b.bufferSize)
	return b
}

// Publish broadcasts the event name to every matching subscription. It never blocks.
func (b *Bus) Publish(ctx context.Context, name string) error {
	b.logger.DebugContext(ctx, "event published", slog.String("event", name))
	return b.broadcaster.Broadcast(ctx, Message[Event]{Data: Event{Name: name, At: b.now()}})
}

// Subscribe returns a subscription receiving the named events, or every event when no
// names are given. The subscription ends when ctx is cancelled or Close is called.
func (b *Bus) Subscribe(ctx context.Context, names ...string) *Subscription {
	s := &Subscription{
		src: b.broadcaster.Subscribe(ctx),
		out: make(chan Event, b.bufferSize),
	}
	if len(names) > 0 {
		s.names = make(map[string]struct{}, len(names))
		for _, n := range names {
			s.names[n] = struct{}{}
		}
	}
	go s.forward(ctx)
	return s
}

// Close closes every subscription.
func (b *Bus) Close() error {
	return b.broadcaster.Close()
}

// Subscription is a filtered view of the bus.
type Subscription struct {
	src   Subscriber[Event]
	out   chan Event
	names map[string]struct{}
}

// Events returns the channel of matching events. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Close ends the subscription. Close is idempotent.
func (s *Subscription) Close() error {
	return s.src.Close()
}

func (s *Subscription) forward(ctx context.Context) {
	defer close(s.out)
	for msg := range s.src.Receive(ctx) {
		if s.names != nil {
			if _, ok := s.names[msg.Data.Name]; !ok {
				continue
			}
		}
		select {
		case s.out <- msg.Data:
		default:
		}
	}
}
