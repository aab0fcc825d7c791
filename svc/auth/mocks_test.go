package auth_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/offlineauth/pkg/async"
	"github.com/dmitrymomot/offlineauth/pkg/credstore"
	"github.com/dmitrymomot/offlineauth/svc/auth"
)

var errWriteFailed = errors.New("disk full")

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Login(ctx context.Context, req auth.LoginRequest) *async.Future[*auth.Response] {
	args := m.Called(ctx, req)
	return args.Get(0).(*async.Future[*auth.Response])
}

func (m *mockTransport) Register(ctx context.Context, req auth.RegisterRequest) *async.Future[*auth.Response] {
	args := m.Called(ctx, req)
	return args.Get(0).(*async.Future[*auth.Response])
}

func (m *mockTransport) ChangePassword(ctx context.Context, req auth.ChangePasswordRequest) *async.Future[*auth.Response] {
	args := m.Called(ctx, req)
	return args.Get(0).(*async.Future[*auth.Response])
}

func (m *mockTransport) AuthParamsForEmail(ctx context.Context, server, email string) *async.Future[auth.AuthParams] {
	args := m.Called(ctx, server, email)
	return args.Get(0).(*async.Future[auth.AuthParams])
}

type mockSyncer struct {
	mock.Mock
}

func (m *mockSyncer) RequestSync(ctx context.Context, reason string) error {
	args := m.Called(ctx, reason)
	return args.Error(0)
}

// recordingNotifier collects published event names.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(_ context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, name)
	return nil
}

func (n *recordingNotifier) count(name string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == name {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.events)
}

type countingAlerter struct {
	mu    sync.Mutex
	calls int
}

func (a *countingAlerter) ShowOfflineDegradedAlert(context.Context) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
}

func (a *countingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// spyStore records every mutation of the credential store and can fail item writes.
type spyStore struct {
	*credstore.Store

	mu         sync.Mutex
	mutations  []string
	failWrites bool
}

func (s *spyStore) record(op string) {
	s.mu.Lock()
	s.mutations = append(s.mutations, op)
	s.mu.Unlock()
}

func (s *spyStore) SetItem(ctx context.Context, key, value string, mode credstore.Mode) error {
	s.record("set:" + key + "@" + mode.String())
	s.mu.Lock()
	fail := s.failWrites
	s.mu.Unlock()
	if fail {
		return errWriteFailed
	}
	return s.Store.SetItem(ctx, key, value, mode)
}

func (s *spyStore) RemoveItem(ctx context.Context, key string, mode credstore.Mode) error {
	s.record("remove:" + key)
	return s.Store.RemoveItem(ctx, key, mode)
}

func (s *spyStore) SetItemsMode(mode credstore.Mode) {
	s.record("items-mode:" + mode.String())
	s.Store.SetItemsMode(mode)
}

func (s *spyStore) SetRecordsMode(mode credstore.Mode) {
	s.record("records-mode:" + mode.String())
	s.Store.SetRecordsMode(mode)
}

func (s *spyStore) setFailWrites(v bool) {
	s.mu.Lock()
	s.failWrites = v
	s.mu.Unlock()
}

func (s *spyStore) ops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.mutations)
}

// fakeKeyStore holds keys in memory and lets tests swap them between checks.
type fakeKeyStore struct {
	mu   sync.Mutex
	keys *auth.Keys
}

func (k *fakeKeyStore) Keys(context.Context) *async.Future[*auth.Keys] {
	k.mu.Lock()
	defer k.mu.Unlock()
	return async.Resolved(k.keys)
}

func (k *fakeKeyStore) SaveKeys(_ context.Context, keys *auth.Keys) error {
	k.set(keys)
	return nil
}

func (k *fakeKeyStore) ClearKeys(context.Context) error {
	k.set(nil)
	return nil
}

func (k *fakeKeyStore) set(keys *auth.Keys) {
	k.mu.Lock()
	k.keys = keys
	k.mu.Unlock()
}
