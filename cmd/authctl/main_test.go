package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/offlineauth/pkg/credstore"
	"github.com/dmitrymomot/offlineauth/pkg/redis"
	"github.com/dmitrymomot/offlineauth/svc/auth"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedUser(t *testing.T, path, user string) {
	t.Helper()
	ctx := context.Background()
	db, err := credstore.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	backend, err := credstore.NewSQLiteBackend(ctx, db)
	require.NoError(t, err)
	store, err := credstore.Open(ctx, backend)
	require.NoError(t, err)
	require.NoError(t, store.SetItem(ctx, auth.ItemUser, user, credstore.ModeFixed))
}

func status(t *testing.T, db string) statusReport {
	t.Helper()
	out, err := runCLI(t, "--backend", "sqlite", "--db", db, "status")
	require.NoError(t, err)
	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	return report
}

func TestStatus_NoSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "auth.db")

	report := status(t, db)
	assert.True(t, report.Offline)
	assert.True(t, report.BackendReachable)
	assert.Nil(t, report.User)
	assert.False(t, report.Ephemeral)
	assert.Equal(t, "fixed", report.ItemsMode)
	assert.Empty(t, report.PreferencesID)
}

func TestStatus_RestoredSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "auth.db")
	seedUser(t, db, `{"uuid":"u1","email":"u1@example.com"}`)

	report := status(t, db)
	assert.False(t, report.Offline)
	assert.Equal(t, map[string]any{"uuid": "u1", "email": "u1@example.com"}, report.User)
	assert.Equal(t, auth.VersionOriginal, report.ProtocolVersion)
	assert.True(t, report.SecurityUpdateAvailable)
	assert.NotEmpty(t, report.PreferencesID)

	// the preferences singleton is stored once and found on the next start
	assert.Equal(t, report.PreferencesID, status(t, db).PreferencesID)
}

func TestPrefs_SetThenGet(t *testing.T) {
	db := filepath.Join(t.TempDir(), "auth.db")
	seedUser(t, db, `{"uuid":"u1"}`)

	out, err := runCLI(t, "--db", db, "prefs", "set", "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "theme updated\n", out)
	_, err = runCLI(t, "--db", db, "prefs", "set", "editor", `{"width":80}`)
	require.NoError(t, err)

	out, err = runCLI(t, "--db", db, "prefs", "get", "theme")
	require.NoError(t, err)
	assert.Equal(t, "\"dark\"\n", out)

	out, err = runCLI(t, "--db", db, "prefs", "get")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark","editor":{"width":80}}`, out)

	_, err = runCLI(t, "--db", db, "prefs", "get", "missing")
	assert.Error(t, err)
}

func TestPrefs_RedisBackendKeepsRecords(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()

	durable, err := credstore.OpenDurable(ctx, credstore.Config{
		Backend:   credstore.BackendRedis,
		KeyPrefix: "offlineauth:items:",
		Redis:     redis.Config{ConnectionURL: url, RetryAttempts: 1},
	})
	require.NoError(t, err)
	store, err := credstore.Open(ctx, durable.Backend)
	require.NoError(t, err)
	require.NoError(t, store.SetItem(ctx, auth.ItemUser, `{"uuid":"u1"}`, credstore.ModeFixed))
	require.NoError(t, durable.Close())

	redisStatus := func() statusReport {
		out, err := runCLI(t, "--backend", "redis", "--redis-url", url, "status")
		require.NoError(t, err)
		var report statusReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		return report
	}

	first := redisStatus()
	require.NotEmpty(t, first.PreferencesID)

	_, err = runCLI(t, "--backend", "redis", "--redis-url", url, "prefs", "set", "theme", "dark")
	require.NoError(t, err)
	out, err := runCLI(t, "--backend", "redis", "--redis-url", url, "prefs", "get", "theme")
	require.NoError(t, err)
	assert.Equal(t, "\"dark\"\n", out)

	assert.Equal(t, first.PreferencesID, redisStatus().PreferencesID)
	assert.True(t, mr.Exists("offlineauth:records:record:"+first.PreferencesID))
}

func TestPrefs_RequiresSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "auth.db")

	_, err := runCLI(t, "--db", db, "prefs", "get")
	assert.ErrorIs(t, err, auth.ErrPreferencesNotLoaded)
}

func TestSignOut(t *testing.T) {
	db := filepath.Join(t.TempDir(), "auth.db")
	seedUser(t, db, `{"uuid":"u1"}`)

	out, err := runCLI(t, "--db", db, "signout")
	require.NoError(t, err)
	assert.Equal(t, "signed out\n", out)
	assert.True(t, status(t, db).Offline)

	out, err = runCLI(t, "--db", db, "signout")
	require.NoError(t, err)
	assert.Equal(t, "not signed in\n", out)
}

func TestMode(t *testing.T) {
	db := filepath.Join(t.TempDir(), "auth.db")

	out, err := runCLI(t, "--db", db, "mode", "persistent")
	require.NoError(t, err)
	assert.Equal(t, "session: persistent\nitems: fixed\nrecords: fixed\n", out)

	_, err = runCLI(t, "--db", db, "mode", "ephemeral")
	assert.Error(t, err)
}

func TestUnknownBackend(t *testing.T) {
	_, err := runCLI(t, "--backend", "etcd", "status")
	assert.ErrorIs(t, err, credstore.ErrUnknownBackend)
}

func TestParseValue(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "dark", parseValue("dark"))
	assert.Equal(t, float64(80), parseValue("80"))
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, map[string]any{"a": "b"}, parseValue(`{"a":"b"}`))
}
