package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State names a state of the machine.
type State string

// Event names an input that may trigger a transition.
type Event string

// Action executes side effects during a transition. Returning an error prevents the transition.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard decides whether a transition may proceed.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Observer is notified after every committed transition.
type Observer func(ctx context.Context, from, to State, event Event)

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

// Machine is a thread-safe in-memory finite state machine.
// Transitions are indexed as [from][event][]Transition; the first transition whose
// guards all pass wins.
type Machine struct {
	initial     State
	current     State
	transitions map[State]map[Event][]Transition
	terminal    map[State]struct{}
	observers   []Observer
	mu          sync.RWMutex
}

func newMachine(initial State) *Machine {
	return &Machine{
		initial:     initial,
		current:     initial,
		transitions: make(map[State]map[Event][]Transition),
		terminal:    make(map[State]struct{}),
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is in state s.
func (m *Machine) Is(s State) bool {
	return m.Current() == s
}

// Done reports whether the machine reached a terminal state.
func (m *Machine) Done() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.terminal[m.current]
	return ok
}

// AddTransition registers a transition. Transitions out of a terminal state are rejected.
func (m *Machine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == "" || to == "" || event == "" {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.terminal[from]; ok {
		return fmt.Errorf("%w: %q is terminal", ErrInvalidTransition, from)
	}
	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[Event][]Transition)
	}

	m.transitions[from][event] = append(m.transitions[from][event], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

// Fire applies event to the current state. Actions run before the state changes;
// observers run after, outside the lock.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == "" {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	from := m.current
	t, err := m.match(ctx, event, data)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, t.To, event, data); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.To
	observers := m.observers
	m.mu.Unlock()

	for _, obs := range observers {
		obs(ctx, from, t.To, event)
	}
	return nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == "" {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.match(ctx, event, data)
	return err == nil
}

// Reset returns the machine to its initial state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

// match must be called with m.mu held.
func (m *Machine) match(ctx context.Context, event Event, data any) (*Transition, error) {
	candidates := m.transitions[m.current][event]
	if len(candidates) == 0 {
		return nil, NewErrNoTransitionAvailable(m.current, event)
	}

	for i, t := range candidates {
		passed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, m.current, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return &candidates[i], nil
		}
	}

	return nil, NewErrTransitionRejected(m.current, event)
}
