package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/offlineauth/pkg/redis"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, client := newClient(t)
	store := redis.NewStorage(client, "items:")

	_, ok, err := store.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "user", `{"uuid":"u1"}`))
	require.NoError(t, store.Set(ctx, "ephemeral", "false"))
	require.NoError(t, mr.Set("other:key", "untouched"))

	v, ok, err := store.Get(ctx, "user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"uuid":"u1"}`, v)
	assert.True(t, mr.Exists("items:user"))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user", "ephemeral"}, keys)

	require.NoError(t, store.Delete(ctx, "user"))
	assert.False(t, mr.Exists("items:user"))
	require.NoError(t, store.Delete(ctx, "missing"))

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("items:ephemeral"))
	assert.True(t, mr.Exists("other:key"))
}

func TestStorage_CommandError(t *testing.T) {
	t.Parallel()
	mr, client := newClient(t)
	store := redis.NewStorage(client, "")
	mr.SetError("READONLY")

	_, _, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, redis.ErrCommandFailed)
	assert.ErrorIs(t, store.Set(context.Background(), "k", "v"), redis.ErrCommandFailed)
}

func TestConnect(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)

	t.Run("success", func(t *testing.T) {
		client, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  "redis://" + mr.Addr() + "/0",
			RetryAttempts:  1,
			ConnectTimeout: time.Second,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		assert.NoError(t, redis.NewStorage(client, "").Ping(context.Background()))
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "://bad"})
		assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := redis.Connect(context.Background(), redis.Config{})
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := redis.Connect(context.Background(), redis.Config{
			ConnectionURL:  "redis://127.0.0.1:1/0",
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: 500 * time.Millisecond,
		})
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}

func TestStorage_PingFailure(t *testing.T) {
	t.Parallel()
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	assert.ErrorIs(t, redis.NewStorage(client, "p:").Ping(context.Background()), redis.ErrHealthcheckFailed)
}
