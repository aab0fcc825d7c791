package async

import (
	"context"
	"sync"
)

// Scheduler runs callbacks on a later turn of its own thread of control.
// Schedule must not run fn synchronously inside the call.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a plain function to the Scheduler interface.
type SchedulerFunc func(fn func())

func (s SchedulerFunc) Schedule(fn func()) {
	s(fn)
}

// GoScheduler runs every callback on a fresh goroutine.
var GoScheduler Scheduler = SchedulerFunc(func(fn func()) { go fn() })

// Loop is a single-threaded run queue. Callbacks scheduled on a Loop run one at a time,
// in scheduling order, on the goroutine that called Run.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
}

// NewLoop creates an idle loop. Call Run to start draining it.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Schedule enqueues fn for the next turn. After Stop, fn runs on its own goroutine so
// deferred futures still settle.
func (l *Loop) Schedule(fn func()) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		go fn()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
		}

		l.mu.Lock()
		stopped := l.stopped
		l.mu.Unlock()
		if stopped {
			return ErrLoopStopped
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunPending executes the callbacks queued at call time and returns how many ran.
// Useful for driving the loop manually from tests or a host event loop.
func (l *Loop) RunPending() int {
	l.mu.Lock()
	pending := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Len reports the number of queued callbacks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stop makes Run return after the current turn and flushes queued callbacks
// onto goroutines. Stop is idempotent.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	pending := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range pending {
		go fn()
	}

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// Defer returns a future that settles with the same value as f, but only on the next
// turn of s after f settles. The value is never transformed.
// A nil scheduler falls back to GoScheduler.
func Defer[U any](s Scheduler, f *Future[U]) *Future[U] {
	if s == nil {
		s = GoScheduler
	}

	out := newFuture[U]()
	go func() {
		res, err := f.Await()
		s.Schedule(func() {
			out.complete(res, err)
		})
	}()

	return out
}
