package credstore

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Backend is a string key-value store. Get reports ok=false for missing keys.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// MemoryBackend is a Backend held in process memory. The zero value is not usable; use
// NewMemoryBackend.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string]string)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.items[key]
	return v, ok, nil
}

func (b *MemoryBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[key] = value
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, key)
	return nil
}

func (b *MemoryBackend) Keys(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Sorted(maps.Keys(b.items)), nil
}

func (b *MemoryBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.items)
	return nil
}

// prefixed exposes the keys of inner that start with prefix, with the prefix stripped.
type prefixed struct {
	inner  Backend
	prefix string
}

func (p prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p prefixed) Keys(ctx context.Context) ([]string, error) {
	all, err := p.inner.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range all {
		if rest, ok := strings.CutPrefix(k, p.prefix); ok {
			keys = append(keys, rest)
		}
	}
	return keys, nil
}

func (p prefixed) Clear(ctx context.Context) error {
	keys, err := p.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := p.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
