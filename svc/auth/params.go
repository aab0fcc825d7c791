package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/dmitrymomot/offlineauth/pkg/async"
	"github.com/dmitrymomot/offlineauth/pkg/logger"
)

// AuthParams returns the cached auth params, reading the "auth_params" item on first use.
// A missing item yields nil and is not cached, so a later handshake or restore is seen.
func (m *Manager) AuthParams(ctx context.Context) (AuthParams, error) {
	m.mu.Lock()
	if m.authParams != nil {
		p := m.authParams
		m.mu.Unlock()
		return p, nil
	}
	m.mu.Unlock()

	raw, ok, err := m.store.GetItem(ctx, ItemAuthParams, m.store.ItemsMode())
	if err != nil || !ok {
		return nil, err
	}
	var params AuthParams
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, errors.Join(ErrCorruptedItem, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authParams == nil {
		m.authParams = params
	}
	return m.authParams, nil
}

// AuthParamsForEmail asks the server for the auth params of an account before login.
func (m *Manager) AuthParamsForEmail(ctx context.Context, server, email string) *async.Future[AuthParams] {
	return async.Defer(m.scheduler, m.transport.AuthParamsForEmail(ctx, server, email))
}

// ProtocolVersion resolves the protocol version of the local account from local state only:
// the version in the auth params, else "002" when the key material carries the legacy auth
// key, else "001".
func (m *Manager) ProtocolVersion(ctx context.Context) *async.Future[string] {
	return async.Async(ctx, struct{}{}, func(ctx context.Context, _ struct{}) (string, error) {
		params, err := m.AuthParams(ctx)
		if err != nil {
			m.logger.WarnContext(ctx, "auth params unreadable, falling back to key material", logger.Error(err))
		}
		if v, ok := params.Version(); ok {
			return v, nil
		}

		keys, err := m.keys.Keys(ctx).AwaitContext(ctx)
		if err != nil {
			return "", err
		}
		if keys.HasLegacyAuthKey() {
			return VersionLegacy, nil
		}
		return VersionOriginal, nil
	})
}

// CheckSecurityStatus reports whether the account uses a protocol older than the latest
// supported one. With no identity it returns false and does nothing else. When the result
// differs from the last computed one, EventSecurityUpdateStatusChanged is published.
func (m *Manager) CheckSecurityStatus(ctx context.Context) (bool, error) {
	if m.Offline() {
		return false, nil
	}

	version, err := m.ProtocolVersion(ctx).AwaitContext(ctx)
	if err != nil {
		return m.SecurityUpdateAvailable(), err
	}
	available := olderVersion(version, m.cfg.LatestProtocolVersion)

	m.mu.Lock()
	prev, known := m.securityUpdate.value()
	changed := !known || prev != available
	m.securityUpdate = tristateOf(available)
	m.mu.Unlock()

	if changed {
		m.logger.InfoContext(ctx, "security update status changed",
			logger.ProtocolVersion(version), slog.Bool("update_available", available))
		m.publish(ctx, EventSecurityUpdateStatusChanged)
	}
	return available, nil
}

// olderVersion compares numeric tags numerically and anything else by inequality.
func olderVersion(v, latest string) bool {
	a, errA := strconv.Atoi(v)
	b, errB := strconv.Atoi(latest)
	if errA == nil && errB == nil {
		return a < b
	}
	return v != latest
}
