package credstore

import (
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/offlineauth/pkg/redis"
)

// NewRedisBackend returns a durable Backend over Redis, confined to keys under prefix.
func NewRedisBackend(client goredis.UniversalClient, prefix string, cfg redis.Config) *redis.Storage {
	return redis.NewStorageWithConfig(client, prefix, cfg)
}

var _ Backend = (*redis.Storage)(nil)
