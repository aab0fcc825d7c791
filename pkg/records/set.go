package records

import (
	"context"
	"log/slog"
)

// Set is the account's record collection.
type Set interface {
	// FindByContentType returns the oldest record of contentType.
	FindByContentType(ctx context.Context, contentType string) (*Record, bool, error)
	Add(ctx context.Context, r *Record) error
	// MarkDirty flags r for the next sync and persists its current content.
	MarkDirty(ctx context.Context, r *Record) error
}

// Lister is implemented by sets that can enumerate every record of a content type,
// oldest first.
type Lister interface {
	ListByContentType(ctx context.Context, contentType string) ([]*Record, error)
}

// Syncer triggers a sync cycle with the server.
type Syncer interface {
	RequestSync(ctx context.Context, reason string) error
}

// SyncerFunc adapts a function to Syncer.
type SyncerFunc func(ctx context.Context, reason string) error

func (f SyncerFunc) RequestSync(ctx context.Context, reason string) error {
	return f(ctx, reason)
}

// EventSyncRequested is published by BusSyncer.
const EventSyncRequested = "sync-requested"

// Publisher publishes named events.
type Publisher interface {
	Publish(ctx context.Context, name string) error
}

// BusSyncer requests a sync by publishing EventSyncRequested; the sync engine subscribes.
type BusSyncer struct {
	pub    Publisher
	logger *slog.Logger
}

func NewBusSyncer(pub Publisher, logger *slog.Logger) *BusSyncer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BusSyncer{pub: pub, logger: logger}
}

func (s *BusSyncer) RequestSync(ctx context.Context, reason string) error {
	s.logger.DebugContext(ctx, "sync requested", slog.String("reason", reason))
	return s.pub.Publish(ctx, EventSyncRequested)
}
