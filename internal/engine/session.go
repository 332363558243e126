package engine

import (
	"sync"

	"github.com/AnyUserName/img2ascii-cli/internal/pixel"
)

// Session sits between an interactive caller and an Engine when requests
// arrive faster than they complete (a scale slider being dragged). Every
// Submit gets a sequence number; a result is delivered only if it is
// newer than the last one delivered, so older results that finish late
// are dropped.
type Session struct {
	engine  *Engine
	deliver func(seq uint64, r Result)

	mu        sync.Mutex
	next      uint64
	delivered uint64
	dropped   int

	// deliverMu serialises deliver calls without holding mu, so deliver
	// may call back into the session.
	deliverMu sync.Mutex
}

// NewSession wraps e. deliver is called with each result that is still
// current, one call at a time.
func NewSession(e *Engine, deliver func(seq uint64, r Result)) *Session {
	return &Session{engine: e, deliver: deliver}
}

// Submit starts a conversion and returns its sequence number.
func (s *Session) Submit(grid *pixel.Grid) uint64 {
	s.mu.Lock()
	s.next++
	seq := s.next
	s.mu.Unlock()

	s.engine.Convert(grid, func(r Result) { s.complete(seq, r) })
	return seq
}

func (s *Session) complete(seq uint64, r Result) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if seq <= s.delivered {
		s.dropped++
		s.mu.Unlock()
		return
	}
	s.delivered = seq
	s.mu.Unlock()

	s.deliver(seq, r)
}

// Latest returns the sequence number of the last delivered result.
func (s *Session) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered
}

// Dropped returns how many stale results were discarded.
func (s *Session) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
