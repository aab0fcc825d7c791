// Package singleton resolves account-scoped records that must exist at most once, such as
// the user preferences record.
//
// Resolve looks the record up under a per-predicate gate. If it exists the caller's
// onResolved callback receives it; otherwise the caller gets a create continuation and the
// record it passes is registered (added, marked dirty, sync requested) before any other
// resolution with the same key can look. Racing callers therefore resolve to the same
// record, and predicates with different keys never wait on each other.
//
// # Usage
//
//	r := singleton.New(set, syncer, singleton.WithLogger(log))
//	err := r.Resolve(ctx, singleton.Predicate{ContentType: "SN|UserPreferences"},
//	    func(rec *records.Record) { prefs = rec },
//	    func(create singleton.CreateFunc) error {
//	        return create(ctx, records.New("SN|UserPreferences"))
//	    },
//	)
//
// # Error Handling
//
// Calling create twice returns ErrAlreadyCreated; calling it after onSafeToCreate returned
// gives ErrResolutionClosed. A predicate with Match over a set that is not a records.Lister
// fails with ErrMatchUnsupported. A failed sync request is logged and does not undo creation.
package singleton
