package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dmitrymomot/offlineauth/pkg/async"
	"github.com/dmitrymomot/offlineauth/pkg/credstore"
)

// ItemKeyStore keeps key material as a JSON item in the credential store under the
// current items mode, with an in-memory copy that stays authoritative if a write fails.
type ItemKeyStore struct {
	store CredentialStore

	mu     sync.RWMutex
	keys   *Keys
	loaded bool
}

// NewItemKeyStore returns a key store over store. Keys are loaded lazily on first use.
func NewItemKeyStore(store CredentialStore) *ItemKeyStore {
	return &ItemKeyStore{store: store}
}

// Keys returns the cached keys, reading the item once when nothing is cached. A missing
// item resolves to nil.
func (s *ItemKeyStore) Keys(ctx context.Context) *async.Future[*Keys] {
	s.mu.RLock()
	if s.loaded {
		k := s.keys
		s.mu.RUnlock()
		return async.Resolved(k)
	}
	s.mu.RUnlock()

	return async.Async(ctx, s.store.ItemsMode(), func(ctx context.Context, mode credstore.Mode) (*Keys, error) {
		raw, ok, err := s.store.GetItem(ctx, ItemKeys, mode)
		if err != nil {
			return nil, err
		}
		var keys *Keys
		if ok {
			keys = &Keys{}
			if err := json.Unmarshal([]byte(raw), keys); err != nil {
				return nil, errors.Join(ErrCorruptedItem, err)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loaded {
			s.keys, s.loaded = keys, true
		}
		return s.keys, nil
	})
}

// SaveKeys replaces the cached keys and writes them under the current items mode.
func (s *ItemKeyStore) SaveKeys(ctx context.Context, keys *Keys) error {
	s.mu.Lock()
	s.keys, s.loaded = keys, true
	s.mu.Unlock()

	raw, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	return s.store.SetItem(ctx, ItemKeys, string(raw), s.store.ItemsMode())
}

// ClearKeys forgets the cached keys and removes the stored item.
func (s *ItemKeyStore) ClearKeys(ctx context.Context) error {
	s.mu.Lock()
	s.keys, s.loaded = nil, true
	s.mu.Unlock()
	return s.store.RemoveItem(ctx, ItemKeys, s.store.ItemsMode())
}
