// Package timedset provides a set whose members expire after a fixed window.
package timedset

import (
	"sync"
	"time"
)

// Set is a membership set with a per-entry timeout. Expired entries are
// evicted lazily on reads, so memory can transiently hold stale entries and
// iteration-adjacent counts may overestimate by at most one window. That is
// an accepted approximation, not something callers should compensate for.
//
// Set is safe for concurrent use.
type Set[T comparable] struct {
	mu      sync.Mutex
	entries map[T]time.Time
	timeout time.Duration
	now     func() time.Time
}

// New creates a Set whose entries expire timeout after insertion.
func New[T comparable](timeout time.Duration) *Set[T] {
	return &Set[T]{
		entries: make(map[T]time.Time),
		timeout: timeout,
		now:     time.Now,
	}
}

// Timeout returns the expiry window.
func (s *Set[T]) Timeout() time.Duration {
	return s.timeout
}

// Contains reports whether k was added within the timeout window. A stale
// entry found during the check is evicted as a side effect.
func (s *Set[T]) Contains(k T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.containsLocked(k)
}

// Add inserts or refreshes k.
func (s *Set[T]) Add(k T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[k] = s.now()
}

// CheckAndAdd atomically reports whether k was already present and, if it
// was not, inserts it. Handlers racing on the same key see exactly one
// "not present" result.
func (s *Set[T]) CheckAndAdd(k T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.containsLocked(k) {
		return true
	}
	s.entries[k] = s.now()
	return false
}

// Count returns the number of non-stale entries, sweeping stale ones first.
func (s *Set[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, at := range s.entries {
		if now.Sub(at) >= s.timeout {
			delete(s.entries, k)
		}
	}
	return len(s.entries)
}

// Clear removes all entries.
func (s *Set[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

func (s *Set[T]) containsLocked(k T) bool {
	at, ok := s.entries[k]
	if !ok {
		return false
	}
	if s.now().Sub(at) >= s.timeout {
		delete(s.entries, k)
		return false
	}
	return true
}
