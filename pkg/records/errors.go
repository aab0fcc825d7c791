package records

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateRecord = errors.New("record already exists")
	ErrNilRecord       = errors.New("nil record")
	ErrEncodeFailed    = errors.New("failed to encode record content")
	ErrDecodeFailed    = errors.New("failed to decode record content")
	ErrStorageFailed   = errors.New("record storage failed")
)
