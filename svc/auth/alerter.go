package auth

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/offlineauth/pkg/logger"
)

// BusAlerter delivers the offline alert as an EventOfflineDegraded notification for the UI
// layer to present.
type BusAlerter struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewBusAlerter returns an alerter publishing to n. A nil logger discards output.
func NewBusAlerter(n Notifier, l *slog.Logger) *BusAlerter {
	if l == nil {
		l = logger.Discard()
	}
	return &BusAlerter{notifier: n, logger: l}
}

// ShowOfflineDegradedAlert publishes EventOfflineDegraded. Delivery failures are logged.
func (a *BusAlerter) ShowOfflineDegradedAlert(ctx context.Context) {
	if err := a.notifier.Publish(ctx, EventOfflineDegraded); err != nil {
		a.logger.WarnContext(ctx, "offline alert not delivered", logger.Error(err))
	}
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string) error { return nil }

type nopAlerter struct{}

func (nopAlerter) ShowOfflineDegradedAlert(context.Context) {}
