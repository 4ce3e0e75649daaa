package clock

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so services and the overdue sweeper can be
// tested without waiting on the wall clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a Clock backed by time.Now, normalized to UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a Clock whose current instant is set explicitly. Useful in
// tests that need to move time forward between calls.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock pinned to t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set pins the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
