// Package dedup suppresses news items already seen across polling
// cycles. The seen-set is bounded by a retention window; a source is
// assumed never to republish an item after that horizon, so eviction is
// safe.
package dedup

import (
	"sync"
	"time"
)

const defaultWindow = 7 * 24 * time.Hour

type entry struct {
	id string
	ts time.Time
}

// Set is a time-windowed set of news fingerprints, safe for concurrent
// use by multiple source pollers.
type Set struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	order  []entry
	window time.Duration
	clock  func() time.Time
}

// Option configures a Set.
type Option func(*Set)

// WithClock overrides the time source, used in tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Set) {
		s.clock = clock
	}
}

// New creates a Set that retains fingerprints for the given window.
func New(window time.Duration, options ...Option) *Set {
	if window <= 0 {
		window = defaultWindow
	}

	s := &Set{
		seen:   make(map[string]time.Time),
		window: window,
		clock:  time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Admit returns true if the fingerprint has not been seen inside the
// retention window, recording it in the same step so no item can be
// half-admitted under concurrent polling.
func (s *Set) Admit(id string) bool {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict(now)

	if _, ok := s.seen[id]; ok {
		return false
	}

	s.seen[id] = now
	s.order = append(s.order, entry{id: id, ts: now})
	return true
}

// Len returns the number of fingerprints currently retained.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// evict drops entries older than the retention window. Caller holds the
// lock.
func (s *Set) evict(now time.Time) {
	cutoff := now.Add(-s.window)

	for len(s.order) > 0 && s.order[0].ts.Before(cutoff) {
		oldest := s.order[0]
		s.order = s.order[1:]

		// A fingerprint re-admitted after eviction carries a newer
		// timestamp; only delete when this entry is still current.
		if ts, ok := s.seen[oldest.id]; ok && ts.Equal(oldest.ts) {
			delete(s.seen, oldest.id)
		}
	}
}
