// Package statemachine provides a small finite state machine with string-named states
// and events, guards, actions and transition observers.
//
// # Usage
//
//	const (
//	    Idle       statemachine.State = "idle"
//	    Requesting statemachine.State = "requesting"
//	    Submit     statemachine.Event = "submit"
//	)
//
//	m := statemachine.MustNew(Idle,
//	    statemachine.WithTransition(Idle, Requesting, Submit),
//	    statemachine.WithObserver(func(ctx context.Context, from, to statemachine.State, ev statemachine.Event) {
//	        log.Printf("%s -> %s via %s", from, to, ev)
//	    }),
//	)
//	_ = m.Fire(ctx, Submit, nil)
//
// Guards veto a transition; the first transition whose guards all pass wins. Actions run
// in order before the state changes and abort the transition on error. Observers run after
// the state changed, outside the machine lock, so they may read the machine.
//
// Terminal states (WithTerminal) accept no outgoing transitions; Done reports whether the
// machine reached one.
//
// # Error Handling
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* ... */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* ... */ }
package statemachine
