package credstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dmitrymomot/offlineauth/pkg/logger"
	"github.com/dmitrymomot/offlineauth/pkg/secrets"
)

const (
	saltKey         = "__passcode_salt"
	verifierKey     = "__passcode_verifier"
	encryptedPrefix = "__encrypted:"
	verifierValue   = "offlineauth-passcode-v1"
	boxPurpose      = "credstore-items-v1"
)

// Store routes item reads and writes to a volatile, fixed or fixed-encrypted backend and
// tracks the current items and records modes. It is process-wide and safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	volatile Backend
	fixed    Backend
	sealed   Backend // encrypted view over fixed; nil while locked

	hasSecret   bool
	itemsMode   Mode
	recordsMode Mode

	kdf       secrets.KDFParams
	plainKeys map[string]struct{}
	box       *secrets.Box
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithVolatileBackend replaces the in-memory backend used for ModeVolatile.
func WithVolatileBackend(b Backend) Option {
	return func(s *Store) {
		if b != nil {
			s.volatile = b
		}
	}
}

// WithKDFParams sets the argon2id parameters used to stretch the local passcode.
func WithKDFParams(p secrets.KDFParams) Option {
	return func(s *Store) { s.kdf = p }
}

// WithPlainKeys lists items that stay in plain ModeFixed storage when a passcode is set,
// such as a flag that must be readable before the store is unlocked.
func WithPlainKeys(keys ...string) Option {
	return func(s *Store) {
		for _, k := range keys {
			s.plainKeys[k] = struct{}{}
		}
	}
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open creates a Store over the durable backend fixed. Both modes start as ModeFixed.
// Open checks fixed for a configured local passcode; the store starts locked when one exists.
func Open(ctx context.Context, fixed Backend, opts ...Option) (*Store, error) {
	s := &Store{
		volatile:    NewMemoryBackend(),
		fixed:       fixed,
		itemsMode:   ModeFixed,
		recordsMode: ModeFixed,
		kdf:         secrets.DefaultKDFParams,
		plainKeys:   make(map[string]struct{}),
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	_, ok, err := fixed.Get(ctx, saltKey)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	s.hasSecret = ok
	return s, nil
}

// GetItem reads key under mode. ok is false when the key is absent.
func (s *Store) GetItem(ctx context.Context, key string, mode Mode) (string, bool, error) {
	b, err := s.backend(mode)
	if err != nil {
		return "", false, err
	}
	return b.Get(ctx, key)
}

// SetItem writes key under mode.
func (s *Store) SetItem(ctx context.Context, key, value string, mode Mode) error {
	b, err := s.backend(mode)
	if err != nil {
		return err
	}
	if err := b.Set(ctx, key, value); err != nil {
		s.logger.WarnContext(ctx, "credential store write failed",
			logger.StorageKey(key), logger.StorageMode(mode.String()), logger.Error(err))
		return err
	}
	return nil
}

// RemoveItem deletes key under mode.
func (s *Store) RemoveItem(ctx context.Context, key string, mode Mode) error {
	b, err := s.backend(mode)
	if err != nil {
		return err
	}
	return b.Delete(ctx, key)
}

// HasLocalUnlockSecret reports whether a local passcode is configured, locked or not.
func (s *Store) HasLocalUnlockSecret() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasSecret
}

// Locked reports whether a passcode is configured but not unlocked in this process.
func (s *Store) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasSecret && s.sealed == nil
}

// SetItemsMode selects the default mode for items written through the auth layer.
// Invalid modes are ignored.
func (s *Store) SetItemsMode(m Mode) {
	s.setMode(&s.itemsMode, m, "items")
}

// ItemsMode returns the current items mode.
func (s *Store) ItemsMode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsMode
}

// SetRecordsMode selects where structured records live. ModeFixedEncrypted is treated as
// ModeFixed by record sets.
func (s *Store) SetRecordsMode(m Mode) {
	s.setMode(&s.recordsMode, m, "records")
}

// RecordsMode returns the current records mode.
func (s *Store) RecordsMode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordsMode
}

func (s *Store) setMode(dst *Mode, m Mode, what string) {
	if !m.valid() {
		return
	}
	s.mu.Lock()
	prev := *dst
	*dst = m
	s.mu.Unlock()

	if prev != m {
		s.logger.Debug("storage mode changed",
			logger.Component("credstore"), slog.String("scope", what),
			slog.String("from", prev.String()), logger.StorageMode(m.String()))
	}
}

// SetPasscode configures a local unlock passcode and unlocks the store with it. Plain
// items in the durable backend are moved to encrypted storage, except the keys registered
// with WithPlainKeys, and an items mode of ModeFixed becomes ModeFixedEncrypted.
func (s *Store) SetPasscode(ctx context.Context, passcode string) error {
	if s.HasLocalUnlockSecret() {
		return ErrPasscodeExists
	}

	salt, err := secrets.GenerateSalt()
	if err != nil {
		return err
	}
	box, err := secrets.NewPasscodeBox(passcode, salt, s.kdf, boxPurpose)
	if err != nil {
		return err
	}
	verifier, err := box.SealString(verifierValue)
	if err != nil {
		box.Close()
		return err
	}

	sealed := NewEncryptedBackend(prefixed{inner: s.fixed, prefix: encryptedPrefix}, box)
	moved, err := s.sealPlainItems(ctx, sealed)
	if err != nil {
		box.Close()
		return errors.Join(ErrMigrationFailed, err)
	}

	if err := s.fixed.Set(ctx, verifierKey, verifier); err != nil {
		s.dropSealed(ctx, sealed, moved)
		box.Close()
		return err
	}
	if err := s.fixed.Set(ctx, saltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
		_ = s.fixed.Delete(ctx, verifierKey)
		s.dropSealed(ctx, sealed, moved)
		box.Close()
		return err
	}

	s.unlockWith(box)
	s.mu.Lock()
	if s.itemsMode == ModeFixed {
		s.itemsMode = ModeFixedEncrypted
	}
	s.mu.Unlock()

	// encrypted copies are committed; plain leftovers are only a cleanup failure
	var errs []error
	for _, k := range moved {
		errs = append(errs, s.fixed.Delete(ctx, k))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.WarnContext(ctx, "plain items left after passcode was set", logger.Error(err))
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// sealPlainItems copies every movable plain item into sealed and returns the moved keys.
// On failure the copies made so far are removed.
func (s *Store) sealPlainItems(ctx context.Context, sealed Backend) ([]string, error) {
	keys, err := s.fixed.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var moved []string
	for _, k := range keys {
		if s.staysPlain(k) {
			continue
		}
		v, ok, err := s.fixed.Get(ctx, k)
		if err != nil {
			s.dropSealed(ctx, sealed, moved)
			return nil, err
		}
		if !ok {
			continue
		}
		if err := sealed.Set(ctx, k, v); err != nil {
			s.dropSealed(ctx, sealed, moved)
			return nil, fmt.Errorf("encrypt %q: %w", k, err)
		}
		moved = append(moved, k)
	}
	return moved, nil
}

func (s *Store) dropSealed(ctx context.Context, sealed Backend, keys []string) {
	for _, k := range keys {
		_ = sealed.Delete(ctx, k)
	}
}

func (s *Store) staysPlain(key string) bool {
	if key == saltKey || key == verifierKey || strings.HasPrefix(key, encryptedPrefix) {
		return true
	}
	_, ok := s.plainKeys[key]
	return ok
}

// Unlock derives the key from passcode and opens encrypted storage.
func (s *Store) Unlock(ctx context.Context, passcode string) error {
	rawSalt, ok, err := s.fixed.Get(ctx, saltKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPasscode
	}
	salt, err := base64.StdEncoding.DecodeString(rawSalt)
	if err != nil {
		return errors.Join(ErrCorruptedPasscode, err)
	}
	verifier, ok, err := s.fixed.Get(ctx, verifierKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCorruptedPasscode
	}

	box, err := secrets.NewPasscodeBox(passcode, salt, s.kdf, boxPurpose)
	if err != nil {
		return err
	}
	if v, err := box.OpenString(verifier); err != nil || v != verifierValue {
		box.Close()
		return ErrWrongPasscode
	}

	s.unlockWith(box)
	return nil
}

// Lock forgets the derived key. Encrypted items become unreadable until Unlock.
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.box != nil {
		s.box.Close()
	}
	s.box = nil
	s.sealed = nil
}

// RemovePasscode moves every encrypted item back to plain fixed storage and deletes the
// passcode. The store must be unlocked. An items mode of ModeFixedEncrypted becomes ModeFixed.
func (s *Store) RemovePasscode(ctx context.Context) error {
	s.mu.RLock()
	sealed, has := s.sealed, s.hasSecret
	s.mu.RUnlock()
	if !has {
		return ErrNoPasscode
	}
	if sealed == nil {
		return ErrLocked
	}

	keys, err := sealed.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		v, ok, err := sealed.Get(ctx, k)
		if err != nil {
			return fmt.Errorf("decrypt %q: %w", k, err)
		}
		if !ok {
			continue
		}
		if err := s.fixed.Set(ctx, k, v); err != nil {
			return err
		}
		if err := sealed.Delete(ctx, k); err != nil {
			return err
		}
	}
	if err := s.fixed.Delete(ctx, verifierKey); err != nil {
		return err
	}
	if err := s.fixed.Delete(ctx, saltKey); err != nil {
		return err
	}

	s.Lock()
	s.mu.Lock()
	s.hasSecret = false
	if s.itemsMode == ModeFixedEncrypted {
		s.itemsMode = ModeFixed
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) unlockWith(box *secrets.Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.box != nil {
		s.box.Close()
	}
	s.box = box
	s.hasSecret = true
	s.sealed = NewEncryptedBackend(prefixed{inner: s.fixed, prefix: encryptedPrefix}, box)
}

func (s *Store) backend(mode Mode) (Backend, error) {
	switch mode {
	case ModeVolatile:
		return s.volatile, nil
	case ModeFixed:
		return s.fixed, nil
	case ModeFixedEncrypted:
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.sealed == nil {
			if !s.hasSecret {
				return nil, ErrNoPasscode
			}
			return nil, ErrLocked
		}
		return s.sealed, nil
	default:
		return nil, ErrInvalidMode
	}
}

// RecordsDurable reports whether the records mode is durable.
func (s *Store) RecordsDurable() bool {
	return s.RecordsMode().Durable()
}
