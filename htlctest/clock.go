package htlctest

import (
	"sync"
	"time"
)

// Clock is a manually advanced clock. Its Now method can be used wherever a
// func() time.Time is expected.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at the given unix second.
func NewClock(unix int64) *Clock {
	return &Clock{now: time.Unix(unix, 0).UTC()}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to the given unix second.
func (c *Clock) Set(unix int64) {
	c.mu.Lock()
	c.now = time.Unix(unix, 0).UTC()
	c.mu.Unlock()
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
