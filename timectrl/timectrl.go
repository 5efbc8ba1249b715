package timectrl

import (
	"sync"
	"time"
)

// Clock is the scheduler's view of current time. The monitor loop, the
// scheduler and the receiver depend on this abstraction rather than on
// time.Now directly, so tests can drive ticks deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// System returns a Clock backed by the wall clock.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Manual is a hand-driven Clock for tests and offline runs. Time never
// moves unless Set or Advance is called.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManual constructs a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set moves the clock to t. Moving backwards is allowed; callers that need
// monotonicity enforce it themselves.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d and returns the new time.
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}
