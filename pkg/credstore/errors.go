package credstore

import "errors"

var (
	ErrInvalidMode       = errors.New("invalid storage mode")
	ErrLocked            = errors.New("encrypted storage is locked")
	ErrNoPasscode        = errors.New("no local passcode configured")
	ErrPasscodeExists    = errors.New("local passcode already configured")
	ErrWrongPasscode     = errors.New("wrong local passcode")
	ErrUnknownBackend    = errors.New("unknown credential store backend")
	ErrReadFailed        = errors.New("failed to read item")
	ErrWriteFailed       = errors.New("failed to write item")
	ErrMigrationFailed   = errors.New("failed to migrate credential store schema")
	ErrOpenFailed        = errors.New("failed to open credential store")
	ErrCorruptedPasscode = errors.New("stored passcode verifier is corrupted")
)
