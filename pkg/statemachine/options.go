package statemachine

import (
	"fmt"
)

// Option configures a machine during construction.
type Option func(*Machine) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption func(*transitionConfig)

type transitionConfig struct {
	guards  []Guard
	actions []Action
}

// New creates a machine with the given initial state and options.
func New(initial State, opts ...Option) (*Machine, error) {
	if initial == "" {
		return nil, ErrInvalidState
	}

	m := newMachine(initial)
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on misconfiguration.
func MustNew(initial State, opts ...Option) *Machine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition adds a single transition.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(m *Machine) error {
		cfg := &transitionConfig{}
		for _, opt := range opts {
			opt(cfg)
		}
		if err := m.AddTransition(from, to, event, cfg.guards, cfg.actions); err != nil {
			return fmt.Errorf("failed to add transition %s->%s on %s: %w", from, to, event, err)
		}
		return nil
	}
}

// WithTerminal marks states with no outgoing transitions. Must precede WithTransition
// options that would leave those states.
func WithTerminal(states ...State) Option {
	return func(m *Machine) error {
		for _, s := range states {
			if s == "" {
				return ErrInvalidState
			}
			m.terminal[s] = struct{}{}
		}
		return nil
	}
}

// WithObserver registers a callback invoked after every committed transition.
func WithObserver(obs Observer) Option {
	return func(m *Machine) error {
		if obs != nil {
			m.observers = append(m.observers, obs)
		}
		return nil
	}
}

// WithGuard adds a guard to a transition.
func WithGuard(guard Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

// WithAction adds an action to a transition.
func WithAction(action Action) TransitionOption {
	return func(cfg *transitionConfig) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}
