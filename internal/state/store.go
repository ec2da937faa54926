package state

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot represents the latest result available to readers.
type Snapshot[T any] struct {
	Result              Result[T]
	Gen                 uint64 // generation of the last applied completion
	Pending             bool   // a newer request is still outstanding
	UpdatedAt           time.Time
	ConsecutiveFailures int // failures applied since the last success
}

// IsOffline returns true when the API has failed several times in a row.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store is the single canonical holder of a Container. All transitions go
// through Reduce under the store's lock.
type Store[T any] struct {
	mu        sync.RWMutex
	container Container[T]
	updatedAt time.Time
	failures  int
}

// Begin allocates the next generation for op and applies the matching
// Requested action.
func (s *Store[T]) Begin(op Op) Requested {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := Requested{Op: op, Gen: s.container.issued + 1}
	s.applyLocked(req)
	return req
}

// Apply reduces a into the stored container and returns the resulting
// snapshot. Dropped actions leave UpdatedAt untouched.
func (s *Store[T]) Apply(a Action) Snapshot[T] {
	snap, _ := s.Settle(a)
	return snap
}

// Settle is Apply that also reports whether a changed the container. The
// decision and the write happen under one lock.
func (s *Store[T]) Settle(a Action) (Snapshot[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.applyLocked(a)
	return s.snapshotLocked(), changed
}

// Reset returns the store to Idle and invalidates outstanding work.
func (s *Store[T]) Reset() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyLocked(Reset{})
	s.failures = 0
	return s.snapshotLocked()
}

// Stale reports whether a completion would be dropped if applied now.
func (s *Store[T]) Stale(op Op, gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.container.Stale(op, gen)
}

// Snapshot returns a copy of the current state.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store[T]) applyLocked(a Action) bool {
	next, changed := reduce(s.container, a)
	if !changed {
		return false
	}
	s.container = next
	s.updatedAt = time.Now()

	switch a.(type) {
	case Failure:
		s.failures++
	case Succeeded[T]:
		s.failures = 0
	}
	return true
}

func (s *Store[T]) snapshotLocked() Snapshot[T] {
	res := s.container.result
	res.data = cloneSlice(res.data)
	if res.err != nil {
		res.err = fmt.Errorf("%w", res.err)
	}
	return Snapshot[T]{
		Result:              res,
		Gen:                 s.container.applied,
		Pending:             s.container.Pending(),
		UpdatedAt:           s.updatedAt,
		ConsecutiveFailures: s.failures,
	}
}
