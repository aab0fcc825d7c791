package auth

import "errors"

var (
	ErrNilDependency        = errors.New("auth: required dependency is nil")
	ErrEmptyResponse        = errors.New("auth: transport returned no response")
	ErrPreferencesNotLoaded = errors.New("auth: user preferences are not resolved")
	ErrRestoreFailed        = errors.New("auth: failed to restore local session")
	ErrSignOutFailed        = errors.New("auth: failed to clear local session")
	ErrCorruptedItem        = errors.New("auth: stored item is corrupted")
)
