package singleton

import "errors"

var (
	ErrAlreadyCreated      = errors.New("singleton: already created in this resolution")
	ErrResolutionClosed    = errors.New("singleton: create called after resolution finished")
	ErrContentTypeMismatch = errors.New("singleton: created record does not match the predicate content type")
	ErrMatchMismatch       = errors.New("singleton: created record does not satisfy the predicate")
	ErrEmptyContentType    = errors.New("singleton: predicate content type is empty")
	ErrNilRecord           = errors.New("singleton: nil record")
	ErrMatchUnsupported    = errors.New("singleton: match predicate needs a set that lists records")
)
