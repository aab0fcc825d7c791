package singleton_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockSyncer struct {
	mock.Mock
}

func (m *mockSyncer) RequestSync(ctx context.Context, reason string) error {
	args := m.Called(ctx, reason)
	return args.Error(0)
}
