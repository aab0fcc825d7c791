package credstore

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/offlineauth/pkg/redis"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config selects and configures the durable backend.
type Config struct {
	Backend    string `env:"CREDSTORE_BACKEND" envDefault:"sqlite"`
	SQLitePath string `env:"CREDSTORE_SQLITE_PATH" envDefault:"offlineauth.db"`
	KeyPrefix  string `env:"CREDSTORE_KEY_PREFIX" envDefault:"offlineauth:items:"`
	// RecordsPrefix namespaces record keys when records share the redis backend.
	RecordsPrefix string `env:"CREDSTORE_RECORDS_PREFIX" envDefault:"offlineauth:records:"`
	Redis         redis.Config
}

// Durable holds the opened durable backend and the resources behind it.
type Durable struct {
	Backend Backend
	// DB is set for the sqlite backend so record sets can share the handle.
	DB *sql.DB
	// Redis is set for the redis backend, for the same reason.
	Redis   goredis.UniversalClient
	ping    func(context.Context) error
	closers []func() error
}

// Ping checks that the backend is reachable.
func (d *Durable) Ping(ctx context.Context) error {
	if d.ping == nil {
		return nil
	}
	return d.ping(ctx)
}

// Close releases the database or client behind the backend.
func (d *Durable) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenDurable opens the durable backend described by cfg.
func OpenDurable(ctx context.Context, cfg Config) (*Durable, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b, err := NewSQLiteBackend(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Durable{Backend: b, DB: db, ping: db.PingContext, closers: []func() error{db.Close}}, nil

	case BackendRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		storage := NewRedisBackend(client, cfg.KeyPrefix, cfg.Redis)
		return &Durable{
			Backend: storage,
			Redis:   client,
			ping:    storage.Ping,
			closers: []func() error{client.Close},
		}, nil

	case BackendMemory:
		return &Durable{Backend: NewMemoryBackend()}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
