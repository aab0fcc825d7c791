// Package async provides generic helpers for running computations asynchronously,
// settling results from callbacks, and delivering results on a host scheduler's next turn.
//
// A Future represents the eventual result of an asynchronous operation. Futures are
// obtained from Async (runs a function on its own goroutine), from a Promise (settled by
// whoever owns the write side, e.g. a network collaborator), or from Resolved/Rejected.
// Callers wait with Await, AwaitContext or AwaitWithTimeout, or poll with IsComplete.
//
// # Scheduling
//
// Scheduler abstracts the host's thread of control. Defer wraps a future so that its value
// is delivered only on the scheduler's next turn after the source settles. This is the
// "yield once" primitive used to avoid re-entering a host update cycle from inside a
// network callback. Loop is a small single-threaded run queue implementing Scheduler;
// GoScheduler runs callbacks on fresh goroutines.
//
// # Usage
//
//	loop := async.NewLoop()
//	go loop.Run(ctx)
//
//	p := async.NewPromise[*Response]()
//	go func() { p.Resolve(doRequest()) }()
//
//	resp, err := async.Defer(loop, p.Future()).Await()
//
// # Error Handling
//
// Errors produced by user callbacks are passed through unchanged. AwaitWithTimeout returns
// ErrTimeout; Loop.Run returns ErrLoopStopped after Stop.
package async
