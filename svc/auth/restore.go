package auth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrymomot/offlineauth/pkg/logger"
)

// Restore loads the local session at startup: the stored session mode, the identity from
// the "user" item (or the legacy bare "uuid" item), the preferences record when an identity
// exists, and one security status check.
func (m *Manager) Restore(ctx context.Context) error {
	ephemeral, err := m.IsEphemeralSession(ctx)
	if err != nil {
		return errors.Join(ErrRestoreFailed, err)
	}
	if !ephemeral {
		m.applyDurableModes()
	}

	user, err := m.readUser(ctx)
	if err != nil {
		return errors.Join(ErrRestoreFailed, err)
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	if user != nil {
		ctx = WithUser(ctx, user)
		if err := m.ConfigureUserPreferences(ctx); err != nil {
			m.logger.WarnContext(ctx, "user preferences not resolved", logger.Error(err))
		}
	}
	m.recheckSecurity(ctx)

	m.logger.DebugContext(ctx, "local session restored",
		logger.StorageMode(m.store.ItemsMode().String()))
	return nil
}

func (m *Manager) readUser(ctx context.Context) (*User, error) {
	mode := m.store.ItemsMode()
	raw, ok, err := m.store.GetItem(ctx, ItemUser, mode)
	if err != nil {
		return nil, err
	}
	if ok {
		var u User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, errors.Join(ErrCorruptedItem, err)
		}
		return &u, nil
	}

	id, ok, err := m.store.GetItem(ctx, ItemLegacyUUID, mode)
	if err != nil || !ok || id == "" {
		return nil, err
	}
	return &User{UUID: id}, nil
}

// SignOut forgets the identity, auth params, keys and preferences in memory and removes the
// session items from storage. Memory is cleared even when storage removal fails.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.user = nil
	m.authParams = nil
	m.prefs = nil
	m.securityUpdate = unset
	m.mu.Unlock()

	mode := m.store.ItemsMode()
	errs := []error{m.keys.ClearKeys(ctx)}
	for _, key := range []string{ItemUser, ItemLegacyUUID, ItemAuthParams} {
		errs = append(errs, m.store.RemoveItem(ctx, key, mode))
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.WarnContext(ctx, "sign out left session items behind", logger.Error(err))
		return errors.Join(ErrSignOutFailed, err)
	}
	m.logger.InfoContext(ctx, "signed out")
	return nil
}
