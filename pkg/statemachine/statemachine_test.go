package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/offlineauth/pkg/statemachine"
)

const (
	idle       statemachine.State = "idle"
	requesting statemachine.State = "requesting"
	succeeded  statemachine.State = "succeeded"
	failed     statemachine.State = "failed"

	submit  statemachine.Event = "submit"
	succeed statemachine.Event = "succeed"
	fail    statemachine.Event = "fail"
)

func flowMachine(t *testing.T, opts ...statemachine.Option) *statemachine.Machine {
	t.Helper()
	base := []statemachine.Option{
		statemachine.WithTerminal(succeeded, failed),
		statemachine.WithTransition(idle, requesting, submit),
		statemachine.WithTransition(requesting, succeeded, succeed),
		statemachine.WithTransition(requesting, failed, fail),
	}
	m, err := statemachine.New(idle, append(base, opts...)...)
	require.NoError(t, err)
	return m
}

func TestMachine_BasicTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := flowMachine(t)

	assert.True(t, m.Is(idle))
	assert.True(t, m.CanFire(ctx, submit, nil))
	assert.False(t, m.CanFire(ctx, succeed, nil))

	require.NoError(t, m.Fire(ctx, submit, nil))
	require.NoError(t, m.Fire(ctx, succeed, nil))
	assert.Equal(t, succeeded, m.Current())
	assert.True(t, m.Done())

	m.Reset()
	assert.Equal(t, idle, m.Current())
	assert.False(t, m.Done())
}

func TestMachine_NoTransition(t *testing.T) {
	t.Parallel()
	m := flowMachine(t)

	err := m.Fire(context.Background(), fail, nil)
	require.Error(t, err)
	assert.True(t, statemachine.IsNoTransitionAvailableError(err))
	assert.Equal(t, idle, m.Current())
}

func TestMachine_TerminalStatesRejectOutgoingTransitions(t *testing.T) {
	t.Parallel()
	_, err := statemachine.New(idle,
		statemachine.WithTerminal(succeeded),
		statemachine.WithTransition(succeeded, idle, submit),
	)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	allowed := false

	m := statemachine.MustNew(idle,
		statemachine.WithTransition(idle, requesting, submit,
			statemachine.WithGuard(func(context.Context, statemachine.State, statemachine.Event, any) bool {
				return allowed
			}),
		),
	)

	err := m.Fire(ctx, submit, nil)
	assert.True(t, statemachine.IsTransitionRejectedError(err))
	assert.False(t, m.CanFire(ctx, submit, nil))

	allowed = true
	require.NoError(t, m.Fire(ctx, submit, nil))
	assert.Equal(t, requesting, m.Current())
}

func TestMachine_ActionErrorAbortsTransition(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	m := statemachine.MustNew(idle,
		statemachine.WithTransition(idle, requesting, submit,
			statemachine.WithAction(func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
				return boom
			}),
		),
	)

	err := m.Fire(context.Background(), submit, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, idle, m.Current())
}

func TestMachine_ObserverSeesCommittedState(t *testing.T) {
	t.Parallel()
	type step struct {
		from, to statemachine.State
		event    statemachine.Event
	}
	var steps []step
	var m *statemachine.Machine
	m = flowMachine(t, statemachine.WithObserver(func(_ context.Context, from, to statemachine.State, ev statemachine.Event) {
		assert.Equal(t, to, m.Current())
		steps = append(steps, step{from, to, ev})
	}))

	ctx := context.Background()
	require.NoError(t, m.Fire(ctx, submit, nil))
	require.NoError(t, m.Fire(ctx, fail, nil))

	assert.Equal(t, []step{
		{idle, requesting, submit},
		{requesting, failed, fail},
	}, steps)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	_, err := statemachine.New("")
	assert.ErrorIs(t, err, statemachine.ErrInvalidState)

	m := statemachine.MustNew(idle)
	assert.ErrorIs(t, m.Fire(context.Background(), "", nil), statemachine.ErrInvalidEvent)
	assert.ErrorIs(t, m.AddTransition(idle, "", submit, nil, nil), statemachine.ErrInvalidTransition)
	assert.Panics(t, func() { statemachine.MustNew("") })
}
