package auth

import (
	"context"

	"github.com/dmitrymomot/offlineauth/pkg/async"
	"github.com/dmitrymomot/offlineauth/pkg/credstore"
)

// Transport performs the remote auth exchanges. Every returned future settles exactly once:
// with a Response (possibly carrying a RemoteError) or with a transport error when no
// response was obtained.
type Transport interface {
	Login(ctx context.Context, req LoginRequest) *async.Future[*Response]
	Register(ctx context.Context, req RegisterRequest) *async.Future[*Response]
	ChangePassword(ctx context.Context, req ChangePasswordRequest) *async.Future[*Response]
	AuthParamsForEmail(ctx context.Context, server, email string) *async.Future[AuthParams]
}

// CredentialStore is the process-wide item store. credstore.Store implements it.
type CredentialStore interface {
	GetItem(ctx context.Context, key string, mode credstore.Mode) (string, bool, error)
	SetItem(ctx context.Context, key, value string, mode credstore.Mode) error
	RemoveItem(ctx context.Context, key string, mode credstore.Mode) error
	HasLocalUnlockSecret() bool
	SetItemsMode(mode credstore.Mode)
	ItemsMode() credstore.Mode
	SetRecordsMode(mode credstore.Mode)
	RecordsMode() credstore.Mode
}

// KeyStore holds the account key material.
type KeyStore interface {
	// Keys settles with nil keys when none are stored.
	Keys(ctx context.Context) *async.Future[*Keys]
	SaveKeys(ctx context.Context, keys *Keys) error
	ClearKeys(ctx context.Context) error
}

// Notifier publishes named events. broadcast.Bus implements it.
type Notifier interface {
	Publish(ctx context.Context, name string) error
}

// Alerter surfaces non-fatal conditions to the user.
type Alerter interface {
	ShowOfflineDegradedAlert(ctx context.Context)
}

var _ CredentialStore = (*credstore.Store)(nil)
