package records

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is an account-scoped content item synchronized with the server.
// Records are shared by pointer; do not copy.
type Record struct {
	ID          uuid.UUID
	ContentType string
	CreatedAt   time.Time

	mu        sync.RWMutex
	appData   map[string]any
	dirty     bool
	updatedAt time.Time
}

// New builds a record of contentType with a fresh identifier.
func New(contentType string) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:          uuid.New(),
		ContentType: contentType,
		CreatedAt:   now,
		appData:     make(map[string]any),
		updatedAt:   now,
	}
}

// AppDataValue returns the client-owned value stored under key.
func (r *Record) AppDataValue(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.appData[key]
	return v, ok
}

// SetAppDataValue stores value under key. A nil value deletes the key.
func (r *Record) SetAppDataValue(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if value == nil {
		delete(r.appData, key)
	} else {
		r.appData[key] = value
	}
	r.updatedAt = time.Now().UTC()
}

// AppData returns a copy of all client-owned values.
func (r *Record) AppData() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.appData)
}

// Dirty reports whether the record has local changes waiting for sync.
func (r *Record) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

func (r *Record) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

func (r *Record) setDirty(dirty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = dirty
	if dirty {
		r.updatedAt = time.Now().UTC()
	}
}
