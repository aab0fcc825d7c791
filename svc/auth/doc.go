// Package auth manages the authentication and local session state of a client that keeps
// working offline.
//
// A Manager composes the collaborators it needs rather than extending a base type: a
// CredentialStore for session items, a Transport for the remote exchanges, a records.Set
// holding account records, a KeyStore for key material, plus optional Notifier, Alerter,
// records.Syncer and async.Scheduler.
//
// Login, Register and ChangePassword each run a small state machine
// (idle, requesting, succeeded or failed). A successful login or registration applies the
// requested session mode, runs the post-auth handshake that stores the identity, auth
// params and keys, and re-checks the security status. A change of password only re-checks
// the security status. Every flow delivers its result on the scheduler's next turn.
//
// The security status compares the account protocol version, resolved from local state
// only, with Config.LatestProtocolVersion and publishes EventSecurityUpdateStatusChanged
// when the result flips. User preferences are an account singleton resolved through
// pkg/singleton; EventUserPreferencesChanged is published once they are known.
//
// # Usage
//
//	store, _ := credstore.Open(ctx, backend)
//	bus := broadcast.NewBus()
//	m, err := auth.New(store, transport, set,
//		auth.WithNotifier(bus),
//		auth.WithAlerter(auth.NewBusAlerter(bus, log)),
//		auth.WithSyncer(records.NewBusSyncer(bus, log)),
//		auth.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//	if err := m.Restore(ctx); err != nil {
//		return err
//	}
//
//	resp, err := m.Login(ctx, auth.LoginRequest{Server: url, Email: email, Password: pw}).Await()
//	switch {
//	case err != nil:
//		// transport failure, nothing changed locally
//	case resp.Failed():
//		// rejected by the server: resp.Error
//	}
//
// # Error Handling
//
// A server rejection is not a Go error: the flow's future resolves with the Response and
// its RemoteError, and no local state changes. A transport error rejects the future.
// Failures to persist the session after a successful exchange are logged and reported to
// the Alerter; the in-memory session remains usable. Restore and SignOut wrap storage
// errors with ErrRestoreFailed and ErrSignOutFailed.
package auth
