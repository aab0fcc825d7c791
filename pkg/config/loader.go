package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// configCache stores parsed configuration copies keyed by type name and prefix.
type configCache struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}

var (
	globalCache = newCache()

	defaultEnvLoaded sync.Once
)

func newCache() *configCache {
	return &configCache{
		values: make(map[string]any),
		onces:  make(map[string]*sync.Once),
	}
}

// Option configures a Load call.
type Option func(*loadOptions)

type loadOptions struct {
	prefix string
}

// WithPrefix prepends prefix to every env variable name of the struct, so one config type
// can be loaded for several instances (e.g. "PRIMARY_" and "SECONDARY_" stores).
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) { o.prefix = prefix }
}

// Load parses environment variables into v. Each type and prefix pair is parsed once per
// process; later calls return the cached copy.
//
// Example:
//
//	type StoreConfig struct {
//		Backend string `env:"CREDSTORE_BACKEND" envDefault:"sqlite"`
//	}
//
//	var cfg StoreConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T, opts ...Option) error {
	defaultEnvLoaded.Do(func() {
		// a missing .env file is fine
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	key := o.prefix + getTypeName[T]()

	if globalCache.get(key, v) {
		return nil
	}

	globalCache.mu.Lock()
	once, exists := globalCache.onces[key]
	if !exists {
		once = new(sync.Once)
		globalCache.onces[key] = once
	}
	globalCache.mu.Unlock()

	var err error
	once.Do(func() {
		if parseErr := env.ParseWithOptions(v, env.Options{Prefix: o.prefix}); parseErr != nil {
			err = errors.Join(ErrParsingConfig, parseErr)
			// allow a retry once the environment is fixed
			globalCache.mu.Lock()
			delete(globalCache.onces, key)
			globalCache.mu.Unlock()
			return
		}

		globalCache.mu.Lock()
		globalCache.values[key] = *v
		globalCache.mu.Unlock()
	})
	if err != nil {
		return err
	}

	if globalCache.get(key, v) {
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// LoadEnv loads the given .env files into the process environment. Variables already set
// are not overridden.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// ResetCache drops every cached configuration. Intended for tests.
func ResetCache() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	globalCache.values = make(map[string]any)
	globalCache.onces = make(map[string]*sync.Once)
}

func (c *configCache) get(key string, dst any) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.values[key]
	if !ok {
		return false
	}
	reflect.ValueOf(dst).Elem().Set(reflect.ValueOf(cached))
	return true
}

func getTypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
