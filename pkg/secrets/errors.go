package secrets

import "errors"

var (
	// Key validation errors
	ErrInvalidKey      = errors.New("invalid key: must be 32 bytes")
	ErrInvalidSalt     = errors.New("invalid salt: must be at least 16 bytes")
	ErrEmptyPasscode   = errors.New("passcode must not be empty")
	ErrInvalidKDFParam = errors.New("invalid key derivation parameters")

	// Encryption/decryption errors
	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrBoxClosed         = errors.New("secret box is closed")

	// Key derivation errors
	ErrKeyDerivationFailed = errors.New("key derivation failed")
)
