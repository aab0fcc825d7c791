package auth

import (
	"context"

	"github.com/dmitrymomot/offlineauth/pkg/logger"
	"github.com/dmitrymomot/offlineauth/pkg/records"
	"github.com/dmitrymomot/offlineauth/pkg/singleton"
)

// Sync reasons passed to the syncer.
const syncReasonPreferences = "sync user preferences"

// ConfigureUserPreferences resolves the preferences singleton, creating it when the
// account has none, and publishes EventUserPreferencesChanged once it is known.
func (m *Manager) ConfigureUserPreferences(ctx context.Context) error {
	ct := m.cfg.PreferencesContentType
	return m.resolver.Resolve(ctx, singleton.Predicate{ContentType: ct},
		func(rec *records.Record) {
			m.mu.Lock()
			m.prefs = rec
			m.mu.Unlock()
			m.publish(ctx, EventUserPreferencesChanged)
		},
		func(create singleton.CreateFunc) error {
			return create(ctx, records.New(ct))
		},
	)
}

// UserPreferences returns the resolved preferences record, or nil.
func (m *Manager) UserPreferences() *records.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

// PreferenceValue returns the preference stored under key, or def when unset or when
// preferences are not resolved.
func (m *Manager) PreferenceValue(key string, def any) any {
	prefs := m.UserPreferences()
	if prefs == nil {
		return def
	}
	if v, ok := prefs.AppDataValue(key); ok && v != nil {
		return v
	}
	return def
}

// SetPreferenceValue stores value under key and, when sync is set, marks the preferences
// dirty and requests a sync.
func (m *Manager) SetPreferenceValue(ctx context.Context, key string, value any, sync bool) error {
	prefs := m.UserPreferences()
	if prefs == nil {
		m.logger.DebugContext(ctx, "preferences not resolved, value dropped", "key", key)
		return ErrPreferencesNotLoaded
	}
	prefs.SetAppDataValue(key, value)
	if sync {
		return m.SyncUserPreferences(ctx)
	}
	return nil
}

// SyncUserPreferences marks the preferences dirty and requests a sync.
func (m *Manager) SyncUserPreferences(ctx context.Context) error {
	prefs := m.UserPreferences()
	if prefs == nil {
		return ErrPreferencesNotLoaded
	}
	if err := m.records.MarkDirty(ctx, prefs); err != nil {
		return err
	}
	if m.syncer == nil {
		return nil
	}
	if err := m.syncer.RequestSync(ctx, syncReasonPreferences); err != nil {
		m.logger.WarnContext(ctx, "preferences sync request failed", logger.Error(err))
		return err
	}
	return nil
}
