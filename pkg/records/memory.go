package records

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemorySet is a volatile Set. Records are kept in insertion order.
type MemorySet struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Record
	order []*Record
}

func NewMemorySet() *MemorySet {
	return &MemorySet{byID: make(map[uuid.UUID]*Record)}
}

func (s *MemorySet) FindByContentType(_ context.Context, contentType string) (*Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.order {
		if r.ContentType == contentType {
			return r, true, nil
		}
	}
	return nil, false, nil
}

func (s *MemorySet) ListByContentType(_ context.Context, contentType string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.order {
		if r.ContentType == contentType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemorySet) Add(_ context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[r.ID]; ok {
		return ErrDuplicateRecord
	}
	s.byID[r.ID] = r
	s.order = append(s.order, r)
	return nil
}

func (s *MemorySet) MarkDirty(_ context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	s.mu.RLock()
	_, ok := s.byID[r.ID]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	r.setDirty(true)
	return nil
}

// DirtyRecords returns records waiting for sync.
func (s *MemorySet) DirtyRecords(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.order {
		if r.Dirty() {
			out = append(out, r)
		}
	}
	return out, nil
}

// MarkClean clears the dirty flag after a successful sync.
func (s *MemorySet) MarkClean(_ context.Context, ids ...uuid.UUID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if r, ok := s.byID[id]; ok {
			r.setDirty(false)
		}
	}
	return nil
}

// Len returns the number of records.
func (s *MemorySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
