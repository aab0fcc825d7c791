package auth

import (
	"context"

	"github.com/dmitrymomot/offlineauth/pkg/async"
	"github.com/dmitrymomot/offlineauth/pkg/logger"
	"github.com/dmitrymomot/offlineauth/pkg/statemachine"
)

// Flow states and events.
const (
	StateIdle       statemachine.State = "idle"
	StateRequesting statemachine.State = "requesting"
	StateSucceeded  statemachine.State = "succeeded"
	StateFailed     statemachine.State = "failed"

	eventSubmit  statemachine.Event = "submit"
	eventSucceed statemachine.Event = "succeed"
	eventFail    statemachine.Event = "fail"
)

// Login authenticates against the server. On success the requested session mode is
// applied, the handshake stores the returned identity, auth params and keys, and the
// security status is re-checked. A rejected response is returned unchanged with no local
// side effects. The future settles on the scheduler's next turn.
func (m *Manager) Login(ctx context.Context, req LoginRequest) *async.Future[*Response] {
	return m.runFlow(ctx, FlowLogin,
		func(ctx context.Context) *async.Future[*Response] { return m.transport.Login(ctx, req) },
		func(ctx context.Context, resp *Response) { m.completeAuth(ctx, req.Ephemeral, resp) },
	)
}

// Register creates an account. Success is handled like Login.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) *async.Future[*Response] {
	return m.runFlow(ctx, FlowRegister,
		func(ctx context.Context) *async.Future[*Response] { return m.transport.Register(ctx, req) },
		func(ctx context.Context, resp *Response) { m.completeAuth(ctx, req.Ephemeral, resp) },
	)
}

// ChangePassword changes the account password. Success only re-checks the security status.
func (m *Manager) ChangePassword(ctx context.Context, req ChangePasswordRequest) *async.Future[*Response] {
	return m.runFlow(ctx, FlowChangePassword,
		func(ctx context.Context) *async.Future[*Response] { return m.transport.ChangePassword(ctx, req) },
		func(ctx context.Context, _ *Response) { m.recheckSecurity(ctx) },
	)
}

// FlowState returns the state of the most recent flow of kind, or StateIdle.
func (m *Manager) FlowState(kind FlowKind) statemachine.State {
	m.mu.Lock()
	machine := m.flows[kind]
	m.mu.Unlock()
	if machine == nil {
		return StateIdle
	}
	return machine.Current()
}

func (m *Manager) newFlowMachine(kind FlowKind) *statemachine.Machine {
	return statemachine.MustNew(StateIdle,
		statemachine.WithTerminal(StateSucceeded, StateFailed),
		statemachine.WithTransition(StateIdle, StateRequesting, eventSubmit),
		statemachine.WithTransition(StateRequesting, StateSucceeded, eventSucceed),
		statemachine.WithTransition(StateRequesting, StateFailed, eventFail),
		statemachine.WithTransition(StateIdle, StateFailed, eventFail),
		statemachine.WithObserver(func(ctx context.Context, from, to statemachine.State, _ statemachine.Event) {
			m.logger.DebugContext(ctx, "auth flow transition",
				logger.Flow(string(kind)), logger.FlowState(string(to)))
		}),
	)
}

func (m *Manager) runFlow(
	ctx context.Context,
	kind FlowKind,
	send func(context.Context) *async.Future[*Response],
	onSuccess func(context.Context, *Response),
) *async.Future[*Response] {
	machine := m.newFlowMachine(kind)
	m.mu.Lock()
	m.flows[kind] = machine
	m.mu.Unlock()

	ctx = logger.WithContextAttrs(ctx, logger.Flow(string(kind)))

	if err := ctx.Err(); err != nil {
		_ = machine.Fire(ctx, eventFail, nil)
		return async.Defer(m.scheduler, async.Rejected[*Response](err))
	}
	_ = machine.Fire(ctx, eventSubmit, nil)

	reqCtx, cancel := ctx, context.CancelFunc(func() {})
	if m.cfg.FlowTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, m.cfg.FlowTimeout)
	}
	pending := send(reqCtx)

	// side effects run to completion once a response arrived
	effectCtx := context.WithoutCancel(ctx)

	result := async.Async(effectCtx, pending, func(ctx context.Context, f *async.Future[*Response]) (*Response, error) {
		resp, err := f.Await()
		cancel()
		switch {
		case err != nil:
			_ = machine.Fire(ctx, eventFail, nil)
			m.logger.WarnContext(ctx, "auth flow transport failed", logger.Error(err))
			return nil, err
		case resp == nil:
			_ = machine.Fire(ctx, eventFail, nil)
			return nil, ErrEmptyResponse
		case resp.Failed():
			_ = machine.Fire(ctx, eventFail, nil)
			m.logger.InfoContext(ctx, "auth flow rejected", logger.Error(resp.Error))
			return resp, nil
		}

		onSuccess(ctx, resp)
		_ = machine.Fire(ctx, eventSucceed, nil)
		return resp, nil
	})

	return async.Defer(m.scheduler, result)
}

// completeAuth runs the login/register success sequence: session mode, handshake, security
// check, then preference resolution.
func (m *Manager) completeAuth(ctx context.Context, ephemeral bool, resp *Response) {
	if err := m.SetEphemeral(ctx, ephemeral); err != nil {
		m.logger.WarnContext(ctx, "session mode flag not persisted", logger.Error(err))
		m.alerter.ShowOfflineDegradedAlert(ctx)
	}
	m.handshake(ctx, resp)
	ctx = m.userContext(ctx)
	m.recheckSecurity(ctx)

	if m.UserPreferences() == nil {
		if err := m.ConfigureUserPreferences(ctx); err != nil {
			m.logger.WarnContext(ctx, "user preferences not resolved", logger.Error(err))
		}
	}
}

func (m *Manager) recheckSecurity(ctx context.Context) {
	if _, err := m.CheckSecurityStatus(ctx); err != nil {
		m.logger.WarnContext(ctx, "security status check failed", logger.Error(err))
	}
}
