package auth

import (
	"context"
	"strconv"

	"github.com/dmitrymomot/offlineauth/pkg/credstore"
	"github.com/dmitrymomot/offlineauth/pkg/logger"
)

// SetEphemeral switches the session storage mode.
//
// Ephemeral sessions keep records and items in volatile storage and persist nothing about
// the mode. Persistent sessions keep records durable and items durable, encrypted when a
// local passcode is configured; the "ephemeral" item is then written as false under
// ModeFixed before SetEphemeral returns.
func (m *Manager) SetEphemeral(ctx context.Context, ephemeral bool) error {
	m.mu.Lock()
	m.ephemeral = tristateOf(ephemeral)
	m.mu.Unlock()

	if ephemeral {
		m.setRecordsMode(credstore.ModeVolatile)
		m.store.SetItemsMode(credstore.ModeVolatile)
		return nil
	}

	m.applyDurableModes()
	return m.store.SetItem(ctx, ItemEphemeral, strconv.FormatBool(false), credstore.ModeFixed)
}

// IsEphemeralSession reports whether the session is ephemeral. The persisted flag is read
// once per process; a missing flag means a persistent session. A failed read is returned
// and not cached.
func (m *Manager) IsEphemeralSession(ctx context.Context) (bool, error) {
	m.mu.Lock()
	if v, ok := m.ephemeral.value(); ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	raw, ok, err := m.store.GetItem(ctx, ItemEphemeral, credstore.ModeFixed)
	if err != nil {
		return false, err
	}
	ephemeral := false
	if ok {
		if ephemeral, err = strconv.ParseBool(raw); err != nil {
			m.logger.WarnContext(ctx, "invalid ephemeral flag, assuming persistent session",
				logger.StorageKey(ItemEphemeral), logger.Error(err))
			ephemeral = false
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ephemeral == unset {
		m.ephemeral = tristateOf(ephemeral)
	}
	v, _ := m.ephemeral.value()
	return v, nil
}

func (m *Manager) applyDurableModes() {
	m.setRecordsMode(credstore.ModeFixed)
	if m.store.HasLocalUnlockSecret() {
		m.store.SetItemsMode(credstore.ModeFixedEncrypted)
	} else {
		m.store.SetItemsMode(credstore.ModeFixed)
	}
}

// setRecordsMode switches the records mode. The loaded preferences record belongs to the
// previous record set when durability changes, so it is dropped and resolved again.
func (m *Manager) setRecordsMode(mode credstore.Mode) {
	if m.store.RecordsMode().Durable() != mode.Durable() {
		m.mu.Lock()
		m.prefs = nil
		m.mu.Unlock()
	}
	m.store.SetRecordsMode(mode)
}
