package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"sync"
)

// Box seals and opens values with an AES-256-GCM key bound to one purpose.
// A Box is safe for concurrent use.
type Box struct {
	mu  sync.RWMutex
	gcm cipher.AEAD
	key []byte
}

// NewBox derives a purpose-bound key from master and returns a Box using it.
// master is not retained.
func NewBox(master []byte, purpose string) (*Box, error) {
	key, err := subkey(master, purpose)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		ClearBytes(key)
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		ClearBytes(key)
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return &Box{gcm: gcm, key: key}, nil
}

// NewPasscodeBox derives the master key from a passcode and returns a Box for purpose.
func NewPasscodeBox(passcode string, salt []byte, params KDFParams, purpose string) (*Box, error) {
	master, err := DeriveKey(passcode, salt, params)
	if err != nil {
		return nil, err
	}
	defer ClearBytes(master)
	return NewBox(master, purpose)
}

// Seal encrypts data. Output format: nonce || ciphertext || tag.
func (b *Box) Seal(data []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.gcm == nil {
		return nil, ErrBoxClosed
	}

	nonce := make([]byte, b.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}
	return b.gcm.Seal(nonce, nonce, data, nil), nil
}

// Open decrypts data produced by Seal.
func (b *Box) Open(ciphertext []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.gcm == nil {
		return nil, ErrBoxClosed
	}

	nonceSize := b.gcm.NonceSize()
	if len(ciphertext) < nonceSize+b.gcm.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := b.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// SealString encrypts a string and returns base64 ciphertext.
func (b *Box) SealString(plaintext string) (string, error) {
	ct, err := b.Seal([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// OpenString decrypts base64 ciphertext produced by SealString.
func (b *Box) OpenString(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}
	pt, err := b.Open(raw)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// Close zeros the key. Further Seal/Open calls fail with ErrBoxClosed.
func (b *Box) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	ClearBytes(b.key)
	b.key = nil
	b.gcm = nil
}
