package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/offlineauth/pkg/async"
	"github.com/dmitrymomot/offlineauth/pkg/logger"
	"github.com/dmitrymomot/offlineauth/pkg/records"
	"github.com/dmitrymomot/offlineauth/pkg/singleton"
	"github.com/dmitrymomot/offlineauth/pkg/statemachine"
)

// tristate distinguishes "not yet known" from a known boolean.
type tristate uint8

const (
	unset tristate = iota
	knownFalse
	knownTrue
)

func tristateOf(b bool) tristate {
	if b {
		return knownTrue
	}
	return knownFalse
}

func (t tristate) value() (bool, bool) {
	return t == knownTrue, t != unset
}

// Manager owns the authentication and session state of one client process.
// All methods are safe for concurrent use; callers should not overlap auth flows and
// expect a particular interleaving.
type Manager struct {
	store     CredentialStore
	transport Transport
	keys      KeyStore
	records   records.Set
	syncer    records.Syncer
	resolver  *singleton.Resolver
	notifier  Notifier
	alerter   Alerter
	scheduler async.Scheduler
	cfg       Config
	logger    *slog.Logger

	mu             sync.Mutex
	user           *User
	authParams     AuthParams
	ephemeral      tristate
	securityUpdate tristate
	prefs          *records.Record
	flows          map[FlowKind]*statemachine.Machine
}

// Option configures a Manager.
type Option func(*Manager)

// WithKeyStore replaces the default ItemKeyStore.
func WithKeyStore(ks KeyStore) Option {
	return func(m *Manager) {
		if ks != nil {
			m.keys = ks
		}
	}
}

// WithSyncer sets the collaborator asked to sync after preferences change.
func WithSyncer(s records.Syncer) Option {
	return func(m *Manager) { m.syncer = s }
}

// WithNotifier sets the event publisher. Defaults to a no-op.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithAlerter sets the alert collaborator. Defaults to a no-op.
func WithAlerter(a Alerter) Option {
	return func(m *Manager) {
		if a != nil {
			m.alerter = a
		}
	}
}

// WithScheduler sets the host scheduler on whose next turn flow results are delivered.
// Defaults to async.GoScheduler.
func WithScheduler(s async.Scheduler) Option {
	return func(m *Manager) {
		if s != nil {
			m.scheduler = s
		}
	}
}

// WithConfig sets the manager configuration. Empty fields fall back to DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		def := DefaultConfig()
		if cfg.LatestProtocolVersion == "" {
			cfg.LatestProtocolVersion = def.LatestProtocolVersion
		}
		if cfg.PreferencesContentType == "" {
			cfg.PreferencesContentType = def.PreferencesContentType
		}
		m.cfg = cfg
	}
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Manager. store, transport and set are required.
func New(store CredentialStore, transport Transport, set records.Set, opts ...Option) (*Manager, error) {
	if store == nil || transport == nil || set == nil {
		return nil, ErrNilDependency
	}

	m := &Manager{
		store:     store,
		transport: transport,
		records:   set,
		notifier:  nopNotifier{},
		alerter:   nopAlerter{},
		scheduler: async.GoScheduler,
		cfg:       DefaultConfig(),
		logger:    logger.Discard(),
		flows:     make(map[FlowKind]*statemachine.Machine),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.keys == nil {
		m.keys = NewItemKeyStore(store)
	}
	m.logger = m.logger.With(logger.Component("auth"))
	m.resolver = singleton.New(set, m.syncer, singleton.WithLogger(m.logger))
	return m, nil
}

// User returns a copy of the session identity, or nil.
func (m *Manager) User() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user.clone()
}

// Offline reports whether there is no session identity.
func (m *Manager) Offline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user == nil
}

// SecurityUpdateAvailable returns the last computed security status. It is false until
// CheckSecurityStatus has run with an identity.
func (m *Manager) SecurityUpdateAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, _ := m.securityUpdate.value()
	return v
}

// Keys returns the account key material.
func (m *Manager) Keys(ctx context.Context) *async.Future[*Keys] {
	return m.keys.Keys(ctx)
}

func (m *Manager) publish(ctx context.Context, event string) {
	if err := m.notifier.Publish(ctx, event); err != nil {
		m.logger.WarnContext(ctx, "event not published", logger.Event(event), logger.Error(err))
	}
}

// userContext returns ctx carrying the current identity, for log correlation.
func (m *Manager) userContext(ctx context.Context) context.Context {
	if u := m.User(); u != nil {
		return WithUser(ctx, u)
	}
	return ctx
}
