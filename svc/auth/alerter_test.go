package auth_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/offlineauth/pkg/broadcast"
	"github.com/dmitrymomot/offlineauth/pkg/logger"
	"github.com/dmitrymomot/offlineauth/svc/auth"
)

func TestBusAlerter(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := broadcast.NewBus()
	defer bus.Close()
	sub := bus.Subscribe(ctx, auth.EventOfflineDegraded)

	auth.NewBusAlerter(bus, nil).ShowOfflineDegradedAlert(ctx)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, auth.EventOfflineDegraded, ev.Name)
	case <-time.After(time.Second):
		t.Fatal("offline alert not published")
	}
}

func TestLogUserExtractor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithJSONFormatter(),
		logger.WithLevel(slog.LevelInfo),
		logger.WithContextExtractors(auth.LogUserExtractor),
	)

	log.InfoContext(context.Background(), "anonymous")
	assert.NotContains(t, buf.String(), `"user_id"`)

	ctx := auth.WithUser(context.Background(), &auth.User{UUID: "u1"})
	require.Equal(t, "u1", auth.UserFromContext(ctx).UUID)
	log.InfoContext(ctx, "signed in")
	assert.Contains(t, buf.String(), `"user_id":"u1"`)
}
