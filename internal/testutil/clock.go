package testutil

import (
	"sync"
	"time"
)

// Clock is a controllable time source. Pass Clock.Now wherever a module
// accepts a func() time.Time.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock at the given time, or at the fixture epoch
// (2025-01-01 00:00:00 UTC) when none is provided.
func NewClock(now ...time.Time) *Clock {
	t := fixtureTime
	if len(now) > 0 {
		t = now[0]
	}
	return &Clock{now: t}
}

// Now returns the clock's current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
