package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of every key handled by this package (AES-256).
	KeySize = 32

	// SaltSize is the size of salts produced by GenerateSalt.
	SaltSize = 16
)

// KDFParams are the argon2id cost parameters used to stretch a passcode.
type KDFParams struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
}

// DefaultKDFParams is tuned for an interactive unlock on a client device.
var DefaultKDFParams = KDFParams{
	Memory:      64 * 1024,
	Time:        1,
	Parallelism: 4,
}

func (p KDFParams) validate() error {
	if p.Memory < 8*1024 || p.Time < 1 || p.Parallelism < 1 {
		return ErrInvalidKDFParam
	}
	return nil
}

// DeriveKey stretches a local unlock passcode into a KeySize master key with argon2id.
// The caller owns the returned slice and should ClearBytes it when done.
func DeriveKey(passcode string, salt []byte, params KDFParams) ([]byte, error) {
	if passcode == "" {
		return nil, ErrEmptyPasscode
	}
	if len(salt) < SaltSize {
		return nil, ErrInvalidSalt
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey([]byte(passcode), salt, params.Time, params.Memory, params.Parallelism, KeySize), nil
}

// subkey derives a purpose-bound key from a master key using HKDF-SHA-256.
func subkey(master []byte, purpose string) ([]byte, error) {
	if len(master) != KeySize {
		return nil, ErrInvalidKey
	}

	r := hkdf.New(sha256.New, master, nil, []byte(purpose))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return key, nil
}

// ClearBytes zeros b in place.
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateKey creates a new random KeySize key.
func GenerateKey() ([]byte, error) {
	return randomBytes(KeySize)
}

// GenerateSalt creates a new random SaltSize salt for DeriveKey.
func GenerateSalt() ([]byte, error) {
	return randomBytes(SaltSize)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
