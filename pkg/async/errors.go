package async

import "errors"

var (
	ErrTimeout     = errors.New("async: operation timed out waiting for future completion")
	ErrLoopStopped = errors.New("async: loop stopped")
)
