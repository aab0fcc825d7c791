// Package redis connects to Redis and exposes a prefix-scoped string key-value Storage used
// as a shared durable credential store backend.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // handle error
//	}
//	defer client.Close()
//
//	store := redis.NewStorageWithConfig(client, "offlineauth:items:", cfg)
//	_ = store.Set(ctx, "ephemeral", "false")
//	v, ok, err := store.Get(ctx, "ephemeral")
//
// Storage.Ping backs readiness checks of the credential backend.
//
// # Errors
//
// Sentinel errors (ErrRedisNotReady, ErrCommandFailed, ...) wrap go-redis errors with
// errors.Join; compare with errors.Is.
package redis
