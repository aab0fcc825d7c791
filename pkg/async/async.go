package async

import (
	"context"
	"sync"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	once   sync.Once
	done   chan struct{}
}

func newFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

// complete settles the future. Only the first call has an effect.
func (f *Future[U]) complete(res U, err error) bool {
	settled := false
	f.once.Do(func() {
		f.result = res
		f.err = err
		close(f.done)
		settled = true
	})
	return settled
}

// Await waits for the asynchronous function to complete and returns its result and error.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext waits for completion or for ctx to be done, whichever happens first.
// The underlying computation is not cancelled when ctx is done.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout waits for the asynchronous function to complete with a timeout.
// If the timeout occurs before completion, returns ErrTimeout.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the future has settled without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the future settles.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// Async executes a function asynchronously and returns a Future.
// The function accepts a context.Context and a parameter of any type T, and returns (U, error).
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()

	go func() {
		// Pre-cancelled context settles without running fn
		select {
		case <-ctx.Done():
			var zero U
			f.complete(zero, ctx.Err())
			return
		default:
		}

		res, err := fn(ctx, param)
		f.complete(res, err)
	}()

	return f
}

// Resolved returns an already settled future holding v.
func Resolved[U any](v U) *Future[U] {
	f := newFuture[U]()
	f.complete(v, nil)
	return f
}

// Rejected returns an already settled future holding err.
func Rejected[U any](err error) *Future[U] {
	f := newFuture[U]()
	var zero U
	f.complete(zero, err)
	return f
}

// Then chains fn onto f. fn runs only when f succeeds; an error from f is passed through.
func Then[U any, V any](ctx context.Context, f *Future[U], fn func(context.Context, U) (V, error)) *Future[V] {
	return Async(ctx, f, func(ctx context.Context, src *Future[U]) (V, error) {
		res, err := src.Await()
		if err != nil {
			var zero V
			return zero, err
		}
		return fn(ctx, res)
	})
}

// WaitAll waits for all futures to complete and returns a slice of their results and an error
// if any of the futures returned an error.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))

	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
