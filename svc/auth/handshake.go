package auth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmitrymomot/offlineauth/pkg/credstore"
	"github.com/dmitrymomot/offlineauth/pkg/logger"
)

// handshake adopts the identity, auth params and keys of a successful response and
// persists them under the current items mode. The in-memory state is set first and stays
// authoritative when persistence fails; the failure only raises the offline alert.
func (m *Manager) handshake(ctx context.Context, resp *Response) {
	m.mu.Lock()
	if resp.User != nil {
		m.user = resp.User.clone()
	}
	if resp.AuthParams != nil {
		m.authParams = resp.AuthParams.clone()
	}
	m.mu.Unlock()

	mode := m.store.ItemsMode()
	var errs []error
	if resp.Keys != nil {
		if err := m.keys.SaveKeys(ctx, resp.Keys); err != nil {
			errs = append(errs, err)
		}
	}
	if resp.AuthParams != nil {
		errs = append(errs, m.setJSONItem(ctx, ItemAuthParams, resp.AuthParams, mode))
	}
	if resp.User != nil {
		errs = append(errs, m.setJSONItem(ctx, ItemUser, resp.User, mode))
	}

	if err := errors.Join(errs...); err != nil {
		m.logger.ErrorContext(ctx, "post-auth handshake could not persist session",
			logger.StorageMode(mode.String()), logger.Error(err))
		m.alerter.ShowOfflineDegradedAlert(ctx)
		return
	}
	m.logger.DebugContext(ctx, "post-auth handshake stored session", logger.StorageMode(mode.String()))
}

func (m *Manager) setJSONItem(ctx context.Context, key string, v any, mode credstore.Mode) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.store.SetItem(ctx, key, string(raw), mode)
}
