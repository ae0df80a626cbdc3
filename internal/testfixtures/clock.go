package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source. The zero start falls back to
// ReferenceTime so fixtures and clocks agree by default.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock reading start.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now reads the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Current is Now, spelled for assertions.
func (c *Clock) Current() time.Time {
	return c.Now()
}

// NowFunc adapts the clock to the func() time.Time dependencies taken by
// services. A nil clock yields time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock by d and returns the new reading.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// Set jumps the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
