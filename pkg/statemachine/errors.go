package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition: from, to, or event cannot be empty")
	ErrInvalidEvent      = errors.New("invalid event: event cannot be empty")
	ErrInvalidState      = errors.New("invalid state: initial state cannot be empty")
)

// ErrNoTransitionAvailable indicates no transition exists for the given state/event combination.
type ErrNoTransitionAvailable struct {
	State State
	Event Event
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.State, e.Event)
}

func NewErrNoTransitionAvailable(state State, event Event) *ErrNoTransitionAvailable {
	return &ErrNoTransitionAvailable{State: state, Event: event}
}

// ErrTransitionRejected indicates all possible transitions were blocked by guards.
type ErrTransitionRejected struct {
	State State
	Event Event
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.State, e.Event)
}

func NewErrTransitionRejected(state State, event Event) *ErrTransitionRejected {
	return &ErrTransitionRejected{State: state, Event: event}
}

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}
