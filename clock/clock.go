// Package clock abstracts time so expiry behavior can be tested without
// sleeping. The caches never schedule anything themselves; they only read
// the current instant, so the interface is deliberately small.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

type realClock struct{}

func Real() Clock { return &realClock{} }

func (c *realClock) Now() time.Time                  { return time.Now() }
func (c *realClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Mock is a controllable clock for tests. Time only moves when Advance or
// Set is called, so expiry boundaries are exact.
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewMock(start time.Time) *Mock { return &Mock{now: start} }

func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *Mock) Since(t time.Time) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now.Sub(t)
}

func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
