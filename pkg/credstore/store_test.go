package credstore_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/offlineauth/pkg/credstore"
	"github.com/dmitrymomot/offlineauth/pkg/redis"
	"github.com/dmitrymomot/offlineauth/pkg/secrets"
)

var fastKDF = secrets.KDFParams{Memory: 8 * 1024, Time: 1, Parallelism: 1}

func openStore(t *testing.T, fixed credstore.Backend) *credstore.Store {
	t.Helper()
	s, err := credstore.Open(context.Background(), fixed, credstore.WithKDFParams(fastKDF))
	require.NoError(t, err)
	return s
}

func sqliteBackend(t *testing.T) credstore.Backend {
	t.Helper()
	db, err := credstore.OpenSQLite(filepath.Join(t.TempDir(), "nested", "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	b, err := credstore.NewSQLiteBackend(context.Background(), db)
	require.NoError(t, err)
	return b
}

func redisBackend(t *testing.T) credstore.Backend {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return credstore.NewRedisBackend(client, "test:", redis.Config{})
}

func TestBackends(t *testing.T) {
	t.Parallel()
	backends := map[string]func(t *testing.T) credstore.Backend{
		"memory": func(*testing.T) credstore.Backend { return credstore.NewMemoryBackend() },
		"sqlite": sqliteBackend,
		"redis":  redisBackend,
	}

	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			b := factory(t)

			_, ok, err := b.Get(ctx, "user")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, b.Set(ctx, "user", `{"uuid":"u1"}`))
			require.NoError(t, b.Set(ctx, "user", `{"uuid":"u2"}`))
			require.NoError(t, b.Set(ctx, "auth_params", `{"version":"003"}`))

			v, ok, err := b.Get(ctx, "user")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"uuid":"u2"}`, v)

			keys, err := b.Keys(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"user", "auth_params"}, keys)

			require.NoError(t, b.Delete(ctx, "user"))
			_, ok, err = b.Get(ctx, "user")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, b.Clear(ctx))
			keys, err = b.Keys(ctx)
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestStore_RoutesByMode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fixed := credstore.NewMemoryBackend()
	s := openStore(t, fixed)

	require.NoError(t, s.SetItem(ctx, "k", "volatile", credstore.ModeVolatile))
	require.NoError(t, s.SetItem(ctx, "k", "fixed", credstore.ModeFixed))

	v, ok, err := s.GetItem(ctx, "k", credstore.ModeVolatile)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "volatile", v)

	v, _, err = fixed.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "fixed", v)

	require.NoError(t, s.RemoveItem(ctx, "k", credstore.ModeVolatile))
	_, ok, err = s.GetItem(ctx, "k", credstore.ModeVolatile)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.GetItem(ctx, "k", credstore.Mode(42))
	assert.ErrorIs(t, err, credstore.ErrInvalidMode)
}

func TestStore_Modes(t *testing.T) {
	t.Parallel()
	s := openStore(t, credstore.NewMemoryBackend())

	assert.Equal(t, credstore.ModeFixed, s.ItemsMode())
	assert.Equal(t, credstore.ModeFixed, s.RecordsMode())

	s.SetItemsMode(credstore.ModeVolatile)
	s.SetRecordsMode(credstore.ModeVolatile)
	assert.Equal(t, credstore.ModeVolatile, s.ItemsMode())
	assert.Equal(t, credstore.ModeVolatile, s.RecordsMode())

	s.SetItemsMode(credstore.Mode(-1))
	assert.Equal(t, credstore.ModeVolatile, s.ItemsMode())
}

func TestStore_EncryptedWithoutPasscode(t *testing.T) {
	t.Parallel()
	s := openStore(t, credstore.NewMemoryBackend())

	assert.False(t, s.HasLocalUnlockSecret())
	err := s.SetItem(context.Background(), "k", "v", credstore.ModeFixedEncrypted)
	assert.ErrorIs(t, err, credstore.ErrNoPasscode)
}

func TestStore_PasscodeLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fixed := credstore.NewMemoryBackend()
	s := openStore(t, fixed)

	require.NoError(t, s.SetPasscode(ctx, "1234"))
	assert.True(t, s.HasLocalUnlockSecret())
	assert.False(t, s.Locked())
	assert.ErrorIs(t, s.SetPasscode(ctx, "5678"), credstore.ErrPasscodeExists)

	require.NoError(t, s.SetItem(ctx, "auth_params", `{"version":"003"}`, credstore.ModeFixedEncrypted))

	keys, err := fixed.Keys(ctx)
	require.NoError(t, err)
	for _, k := range keys {
		v, _, _ := fixed.Get(ctx, k)
		assert.NotContains(t, v, `"version"`, "plaintext leaked under %s", k)
	}

	t.Run("reopened store starts locked", func(t *testing.T) {
		reopened := openStore(t, fixed)
		assert.True(t, reopened.HasLocalUnlockSecret())
		assert.True(t, reopened.Locked())

		_, _, err := reopened.GetItem(ctx, "auth_params", credstore.ModeFixedEncrypted)
		assert.ErrorIs(t, err, credstore.ErrLocked)

		assert.ErrorIs(t, reopened.Unlock(ctx, "0000"), credstore.ErrWrongPasscode)
		require.NoError(t, reopened.Unlock(ctx, "1234"))

		v, ok, err := reopened.GetItem(ctx, "auth_params", credstore.ModeFixedEncrypted)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"version":"003"}`, v)
	})

	t.Run("lock", func(t *testing.T) {
		other := openStore(t, fixed)
		require.NoError(t, other.Unlock(ctx, "1234"))
		other.Lock()
		assert.True(t, other.Locked())
	})

	t.Run("remove passcode decrypts items", func(t *testing.T) {
		s.SetItemsMode(credstore.ModeFixedEncrypted)
		require.NoError(t, s.RemovePasscode(ctx))
		assert.False(t, s.HasLocalUnlockSecret())
		assert.Equal(t, credstore.ModeFixed, s.ItemsMode())

		v, ok, err := s.GetItem(ctx, "auth_params", credstore.ModeFixed)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"version":"003"}`, v)

		keys, err := fixed.Keys(ctx)
		require.NoError(t, err)
		for _, k := range keys {
			assert.False(t, strings.HasPrefix(k, "__"), "internal key %s left behind", k)
		}
	})
}

func TestStore_SetPasscodeSealsPlainItems(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fixed := credstore.NewMemoryBackend()
	s, err := credstore.Open(ctx, fixed,
		credstore.WithKDFParams(fastKDF), credstore.WithPlainKeys("ephemeral"))
	require.NoError(t, err)

	require.NoError(t, s.SetItem(ctx, "user", `{"uuid":"u-1","email":"a@b.c"}`, credstore.ModeFixed))
	require.NoError(t, s.SetItem(ctx, "ephemeral", "true", credstore.ModeFixed))
	require.NoError(t, s.SetItem(ctx, "scratch", "kept", credstore.ModeVolatile))
	s.SetItemsMode(credstore.ModeFixed)

	require.NoError(t, s.SetPasscode(ctx, "1234"))
	assert.Equal(t, credstore.ModeFixedEncrypted, s.ItemsMode())

	_, ok, err := s.GetItem(ctx, "user", credstore.ModeFixed)
	require.NoError(t, err)
	assert.False(t, ok, "plain copy must be removed")

	v, ok, err := s.GetItem(ctx, "ephemeral", credstore.ModeFixed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	v, ok, err = s.GetItem(ctx, "scratch", credstore.ModeVolatile)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "kept", v)

	keys, err := fixed.Keys(ctx)
	require.NoError(t, err)
	for _, k := range keys {
		raw, _, _ := fixed.Get(ctx, k)
		assert.NotContains(t, raw, "a@b.c", "plaintext leaked under %s", k)
	}

	reopened, err := credstore.Open(ctx, fixed,
		credstore.WithKDFParams(fastKDF), credstore.WithPlainKeys("ephemeral"))
	require.NoError(t, err)
	v, ok, err = reopened.GetItem(ctx, "ephemeral", credstore.ModeFixed)
	require.NoError(t, err)
	assert.True(t, ok, "plain keys stay readable while locked")
	assert.Equal(t, "true", v)

	require.NoError(t, reopened.Unlock(ctx, "1234"))
	v, ok, err = reopened.GetItem(ctx, "user", credstore.ModeFixedEncrypted)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"uuid":"u-1","email":"a@b.c"}`, v)

	t.Run("remove passcode restores plain items", func(t *testing.T) {
		require.NoError(t, reopened.RemovePasscode(ctx))
		v, ok, err := reopened.GetItem(ctx, "user", credstore.ModeFixed)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"uuid":"u-1","email":"a@b.c"}`, v)
	})
}

func TestStore_UnlockWithoutPasscode(t *testing.T) {
	t.Parallel()
	s := openStore(t, credstore.NewMemoryBackend())
	assert.ErrorIs(t, s.Unlock(context.Background(), "1234"), credstore.ErrNoPasscode)
	assert.ErrorIs(t, s.RemovePasscode(context.Background()), credstore.ErrNoPasscode)
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	for _, m := range []credstore.Mode{credstore.ModeVolatile, credstore.ModeFixed, credstore.ModeFixedEncrypted} {
		parsed, err := credstore.ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	m, err := credstore.ParseMode("ephemeral")
	require.NoError(t, err)
	assert.Equal(t, credstore.ModeVolatile, m)

	_, err = credstore.ParseMode("cloud")
	assert.ErrorIs(t, err, credstore.ErrInvalidMode)

	assert.False(t, credstore.ModeVolatile.Durable())
	assert.True(t, credstore.ModeFixedEncrypted.Durable())
}

func TestOpenDurable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		d, err := credstore.OpenDurable(ctx, credstore.Config{
			Backend:    credstore.BackendSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "auth.db"),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = d.Close() })
		assert.NotNil(t, d.DB)
		assert.Nil(t, d.Redis)
		require.NoError(t, d.Ping(ctx))
		require.NoError(t, d.Backend.Set(ctx, "k", "v"))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		d, err := credstore.OpenDurable(ctx, credstore.Config{
			Backend:   credstore.BackendRedis,
			KeyPrefix: "p:",
			Redis:     redis.Config{ConnectionURL: "redis://" + mr.Addr(), RetryAttempts: 1},
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = d.Close() })
		require.NoError(t, d.Ping(ctx))
		require.NotNil(t, d.Redis)
		assert.Nil(t, d.DB)
		require.NoError(t, d.Backend.Set(ctx, "k", "v"))
		assert.True(t, mr.Exists("p:k"))

		mr.SetError("LOADING server is loading")
		assert.ErrorIs(t, d.Ping(ctx), redis.ErrHealthcheckFailed)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := credstore.OpenDurable(ctx, credstore.Config{Backend: "etcd"})
		assert.ErrorIs(t, err, credstore.ErrUnknownBackend)
	})
}
