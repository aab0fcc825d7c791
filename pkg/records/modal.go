package records

import "context"

// ModeSource reports whether records currently belong in durable storage.
// credstore.Store implements it.
type ModeSource interface {
	RecordsDurable() bool
}

// ModeSourceFunc adapts a function to ModeSource.
type ModeSourceFunc func() bool

func (f ModeSourceFunc) RecordsDurable() bool { return f() }

// ModalSet routes each call to a volatile or a durable set depending on the current
// records mode, so an ephemeral session never writes records to disk.
type ModalSet struct {
	modes    ModeSource
	volatile Set
	durable  Set
}

func NewModalSet(modes ModeSource, volatile, durable Set) *ModalSet {
	return &ModalSet{modes: modes, volatile: volatile, durable: durable}
}

func (s *ModalSet) current() Set {
	if s.modes.RecordsDurable() {
		return s.durable
	}
	return s.volatile
}

func (s *ModalSet) FindByContentType(ctx context.Context, contentType string) (*Record, bool, error) {
	return s.current().FindByContentType(ctx, contentType)
}

func (s *ModalSet) ListByContentType(ctx context.Context, contentType string) ([]*Record, error) {
	set := s.current()
	if l, ok := set.(Lister); ok {
		return l.ListByContentType(ctx, contentType)
	}
	r, ok, err := set.FindByContentType(ctx, contentType)
	if err != nil || !ok {
		return nil, err
	}
	return []*Record{r}, nil
}

func (s *ModalSet) Add(ctx context.Context, r *Record) error {
	return s.current().Add(ctx, r)
}

func (s *ModalSet) MarkDirty(ctx context.Context, r *Record) error {
	return s.current().MarkDirty(ctx, r)
}
