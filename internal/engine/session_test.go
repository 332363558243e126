package engine

import (
	"sync"
	"testing"
	"time"
)

func TestSession_DeliversOnlyNewer(t *testing.T) {
	e := newEngine(t)

	var mu sync.Mutex
	var seqs []uint64
	s := NewSession(e, func(seq uint64, r Result) {
		mu.Lock()
		defer mu.Unlock()
		if r.Err != nil {
			t.Errorf("seq %d: %v", seq, r.Err)
		}
		seqs = append(seqs, seq)
	})

	const n = 20
	var last uint64
	for i := 0; i < n; i++ {
		last = s.Submit(gradient(t, 10+i*7, 10+i*3))
	}
	if last != n {
		t.Fatalf("last seq %d, want %d", last, n)
	}

	deadline := time.Now().Add(10 * time.Second)
	for s.Latest() != last && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if s.Latest() != last {
		t.Fatalf("latest delivered %d, want %d", s.Latest(), last)
	}
	// Wait for the remaining stale completions to be counted.
	for time.Now().Before(deadline) {
		mu.Lock()
		total := len(seqs) + s.Dropped()
		mu.Unlock()
		if total == n {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("delivery order not increasing: %v", seqs)
		}
	}
	if len(seqs)+s.Dropped() != n {
		t.Errorf("delivered %d + dropped %d != %d", len(seqs), s.Dropped(), n)
	}
}

func TestSession_StaleResultDropped(t *testing.T) {
	var got []uint64
	s := &Session{deliver: func(seq uint64, _ Result) { got = append(got, seq) }}
	s.next = 3

	s.complete(2, Result{})
	s.complete(1, Result{})
	s.complete(3, Result{})

	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("delivered %v, want [2 3]", got)
	}
	if s.Dropped() != 1 {
		t.Errorf("dropped %d, want 1", s.Dropped())
	}
}

func TestSession_DeliverMayCallBack(t *testing.T) {
	e := newEngine(t)

	next := uniform(t, 3, 2, white)
	done := make(chan uint64, 2)
	var s *Session
	s = NewSession(e, func(seq uint64, r Result) {
		if r.Err != nil {
			t.Errorf("seq %d: %v", seq, r.Err)
		}
		if got := s.Latest(); got != seq {
			t.Errorf("Latest inside deliver = %d, want %d", got, seq)
		}
		_ = s.Dropped()
		if seq == 1 {
			s.Submit(next)
		}
		done <- seq
	})
	s.Submit(uniform(t, 2, 2, black))

	for want := uint64(1); want <= 2; want++ {
		select {
		case got := <-done:
			if got != want {
				t.Fatalf("delivered seq %d, want %d", got, want)
			}
		case <-time.After(10 * time.Second):
			t.Fatalf("seq %d not delivered; deliver blocked on the session", want)
		}
	}
}
