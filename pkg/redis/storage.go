package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Storage is a string key-value store over Redis, confined to a key prefix.
// Clear only removes keys under the prefix.
type Storage struct {
	db            redis.UniversalClient
	prefix        string
	scanBatchSize int64
}

// NewStorage wraps client. prefix namespaces every key (e.g. "offlineauth:items:").
func NewStorage(client redis.UniversalClient, prefix string) *Storage {
	return &Storage{db: client, prefix: prefix, scanBatchSize: 500}
}

// NewStorageWithConfig is NewStorage with the scan batch size taken from cfg.
func NewStorageWithConfig(client redis.UniversalClient, prefix string, cfg Config) *Storage {
	s := NewStorage(client, prefix)
	if cfg.ScanBatchSize > 0 {
		s.scanBatchSize = cfg.ScanBatchSize
	}
	return s
}

// Get returns the value for key; ok is false when the key does not exist.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.db.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Join(ErrCommandFailed, err)
	}
	return val, true, nil
}

// Set stores value under key without expiration.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := s.db.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.db.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

// Keys lists keys under the prefix, with the prefix stripped. Uses SCAN.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.db.Scan(ctx, cursor, s.prefix+"*", s.scanBatchSize).Result()
		if err != nil {
			return nil, errors.Join(ErrCommandFailed, err)
		}
		for _, k := range batch {
			keys = append(keys, k[len(s.prefix):])
		}
		if cursor = next; cursor == 0 {
			return keys, nil
		}
	}
}

// Clear removes every key under the prefix.
func (s *Storage) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil || len(keys) == 0 {
		return err
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.db.Del(ctx, full...).Err(); err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

// Conn returns the underlying client.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}

// Ping reports whether the server answers. Failures wrap ErrHealthcheckFailed.
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
