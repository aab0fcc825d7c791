package singleton

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/offlineauth/pkg/logger"
	"github.com/dmitrymomot/offlineauth/pkg/records"
)

// Predicate identifies a singleton. ContentType is required; Match narrows it further and
// needs a set implementing records.Lister.
type Predicate struct {
	ContentType string
	Match       func(*records.Record) bool
	// Key overrides the gate key. Predicates sharing a key serialize with each other.
	// Defaults to ContentType.
	Key string
}

func (p Predicate) key() string {
	if p.Key != "" {
		return p.Key
	}
	return p.ContentType
}

func (p Predicate) matches(r *records.Record) bool {
	return r.ContentType == p.ContentType && (p.Match == nil || p.Match(r))
}

// CreateFunc registers a newly built record as the singleton. It may be called at most
// once, and only before onSafeToCreate returns.
type CreateFunc func(ctx context.Context, r *records.Record) error

// SyncReason is passed to the syncer after a singleton is created.
const SyncReason = "singleton create"

// Resolver resolves account-scoped singleton records: it finds the existing record or lets
// exactly one caller create it. Resolutions for the same predicate key are serialized.
type Resolver struct {
	set    records.Set
	syncer records.Syncer
	gates  *gates
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver over set. syncer may be nil.
func New(set records.Set, syncer records.Syncer, opts ...Option) *Resolver {
	r := &Resolver{
		set:    set,
		syncer: syncer,
		gates:  newGates(),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up the singleton described by pred.
//
// When a matching record exists, onResolved is called with it. Otherwise onSafeToCreate is
// called with a CreateFunc; the record passed to it is added to the set, marked dirty and
// a sync is requested, and onResolved is then called with that record. No other resolution
// with the same key can run between the lookup and the end of onSafeToCreate, so a racing
// caller observes the created record. If onSafeToCreate does not call create, Resolve
// returns its error (or nil) without calling onResolved.
//
// Callbacks run on the caller's goroutine. onResolved runs after the gate is released.
func (r *Resolver) Resolve(
	ctx context.Context,
	pred Predicate,
	onResolved func(*records.Record),
	onSafeToCreate func(create CreateFunc) error,
) error {
	if pred.ContentType == "" {
		return ErrEmptyContentType
	}

	release, err := r.gates.acquire(ctx, pred.key())
	if err != nil {
		return err
	}
	defer release()

	found, ok, err := r.find(ctx, pred)
	if err != nil {
		return err
	}
	if ok {
		release()
		if onResolved != nil {
			onResolved(found)
		}
		return nil
	}

	c := &creation{resolver: r, pred: pred}
	err = onSafeToCreate(c.create)
	created := c.finish()
	release()

	if err != nil {
		return err
	}
	if created != nil && onResolved != nil {
		onResolved(created)
	}
	return nil
}

// Ensure returns the singleton for pred, building it with build when absent.
func (r *Resolver) Ensure(ctx context.Context, pred Predicate, build func() *records.Record) (*records.Record, error) {
	var out *records.Record
	err := r.Resolve(ctx, pred,
		func(rec *records.Record) { out = rec },
		func(create CreateFunc) error { return create(ctx, build()) },
	)
	return out, err
}

func (r *Resolver) find(ctx context.Context, pred Predicate) (*records.Record, bool, error) {
	if pred.Match != nil {
		lister, ok := r.set.(records.Lister)
		if !ok {
			return nil, false, ErrMatchUnsupported
		}
		list, err := lister.ListByContentType(ctx, pred.ContentType)
		if err != nil {
			return nil, false, err
		}
		for _, rec := range list {
			if pred.matches(rec) {
				return rec, true, nil
			}
		}
		return nil, false, nil
	}

	rec, ok, err := r.set.FindByContentType(ctx, pred.ContentType)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec, true, nil
}

type creation struct {
	resolver *Resolver
	pred     Predicate

	mu      sync.Mutex
	done    bool
	created *records.Record
}

func (c *creation) create(ctx context.Context, rec *records.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.done:
		return ErrResolutionClosed
	case c.created != nil:
		return ErrAlreadyCreated
	case rec == nil:
		return ErrNilRecord
	case rec.ContentType != c.pred.ContentType:
		return ErrContentTypeMismatch
	case !c.pred.matches(rec):
		return ErrMatchMismatch
	}

	r := c.resolver
	if err := r.set.Add(ctx, rec); err != nil {
		return err
	}
	c.created = rec

	if err := r.set.MarkDirty(ctx, rec); err != nil {
		r.logger.WarnContext(ctx, "mark singleton dirty failed",
			logger.ContentType(rec.ContentType), logger.Error(err))
	}
	if r.syncer != nil {
		if err := r.syncer.RequestSync(ctx, SyncReason); err != nil {
			r.logger.WarnContext(ctx, "sync request after singleton create failed",
				logger.ContentType(rec.ContentType), logger.Error(err))
		}
	}

	r.logger.DebugContext(ctx, "singleton created",
		logger.ContentType(rec.ContentType), slog.String("record_id", rec.ID.String()))
	return nil
}

func (c *creation) finish() *records.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = true
	return c.created
}
