package singleton

import (
	"context"
	"sync"
)

// gates hands out one mutual-exclusion slot per key. Idle slots are dropped.
type gates struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newGates() *gates {
	return &gates{slots: make(map[string]*slot)}
}

// acquire blocks until the slot for key is free or ctx is done.
func (g *gates) acquire(ctx context.Context, key string) (release func(), err error) {
	g.mu.Lock()
	s, ok := g.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		g.slots[key] = s
	}
	s.refs++
	g.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		g.unref(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			g.unref(key, s)
		})
	}, nil
}

func (g *gates) unref(key string, s *slot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(g.slots, key)
	}
}

func (g *gates) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.slots)
}
