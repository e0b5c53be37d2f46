package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the first instant returned by a Clock created with a zero
// start time.
var DefaultEpoch = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

// Clock is a deterministic wall clock for tests.
//
// Every call to Now returns the start time plus step times the number of
// earlier calls, so the same test always sees the same timestamps.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	n     int64
}

// NewClock creates a clock starting at start and advancing by step per call.
// A zero start uses DefaultEpoch.
func NewClock(start time.Time, step time.Duration) *Clock {
	if start.IsZero() {
		start = DefaultEpoch
	}
	return &Clock{start: start, step: step}
}

// Now returns the current instant and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Peek returns the instant the next Now call will return.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(time.Duration(c.n) * c.step)
}

// Reset rewinds the clock to its start time.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
