package e2e

import (
	"sync"
	"time"
)

// manualClock is a hand-advanced time source. Deadlines stored by the core
// are absolute, so advancing the clock past one makes the next scheduler
// tick or touching operation finalize it.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(start time.Time) *manualClock {
	return &manualClock{now: start}
}

// Now returns the current simulated instant.
func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the simulated clock forward by d.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
