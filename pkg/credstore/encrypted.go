package credstore

import (
	"context"
	"errors"

	"github.com/dmitrymomot/offlineauth/pkg/secrets"
)

// EncryptedBackend seals values with a secrets.Box before handing them to the inner backend.
// Keys are stored in the clear.
type EncryptedBackend struct {
	inner Backend
	box   *secrets.Box
}

func NewEncryptedBackend(inner Backend, box *secrets.Box) *EncryptedBackend {
	return &EncryptedBackend{inner: inner, box: box}
}

func (b *EncryptedBackend) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := b.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	v, err := b.box.OpenString(sealed)
	if err != nil {
		return "", false, errors.Join(ErrReadFailed, err)
	}
	return v, true, nil
}

func (b *EncryptedBackend) Set(ctx context.Context, key, value string) error {
	sealed, err := b.box.SealString(value)
	if err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return b.inner.Set(ctx, key, sealed)
}

func (b *EncryptedBackend) Delete(ctx context.Context, key string) error {
	return b.inner.Delete(ctx, key)
}

func (b *EncryptedBackend) Keys(ctx context.Context) ([]string, error) {
	return b.inner.Keys(ctx)
}

func (b *EncryptedBackend) Clear(ctx context.Context) error {
	return b.inner.Clear(ctx)
}
