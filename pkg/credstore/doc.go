// Package credstore is the process-wide credential store: simple string items routed by a
// storage Mode, plus the current mode for structured records.
//
// Three modes exist. ModeVolatile keeps items in memory for the life of the process.
// ModeFixed writes them to a durable Backend (SQLite, Redis or memory for tests).
// ModeFixedEncrypted writes them to the same durable backend sealed with a key derived from
// a local unlock passcode (see pkg/secrets). Callers pick the mode per call; the store also
// remembers an items mode and a records mode that higher layers switch between sessions.
// SetPasscode moves existing plain items into encrypted storage, except the keys listed with
// WithPlainKeys, and RemovePasscode moves them back.
//
// # Usage
//
//	durable, err := credstore.OpenDurable(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer durable.Close()
//
//	store, err := credstore.Open(ctx, durable.Backend, credstore.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	if store.HasLocalUnlockSecret() {
//	    if err := store.Unlock(ctx, passcode); err != nil {
//	        return err
//	    }
//	}
//	_ = store.SetItem(ctx, "ephemeral", "false", credstore.ModeFixed)
//
// # Error Handling
//
// Reads and writes under ModeFixedEncrypted fail with ErrLocked until Unlock succeeds and
// with ErrNoPasscode when no passcode exists. Backend failures wrap ErrReadFailed or
// ErrWriteFailed. A failed move of plain items during SetPasscode wraps ErrMigrationFailed.
package credstore
