package async

// Promise is the write side of a Future. Collaborators that complete work from callbacks
// (network responses, event loops) settle the promise; consumers await its Future.
type Promise[U any] struct {
	future *Future[U]
}

// NewPromise creates an unsettled promise.
func NewPromise[U any]() *Promise[U] {
	return &Promise[U]{future: newFuture[U]()}
}

// Future returns the read side of the promise.
func (p *Promise[U]) Future() *Future[U] {
	return p.future
}

// Resolve settles the promise with v. It returns false if the promise was already settled.
func (p *Promise[U]) Resolve(v U) bool {
	return p.future.complete(v, nil)
}

// Reject settles the promise with err. It returns false if the promise was already settled.
func (p *Promise[U]) Reject(err error) bool {
	var zero U
	return p.future.complete(zero, err)
}
