// Package clock provides the resettable trial clock and the frame tick source
// that paces the control loop.
package clock

import (
	"sync"
	"time"
)

// Clock is a monotonic elapsed-time source with an explicit reset.
type Clock interface {
	// Now returns the current monotonic instant.
	Now() time.Time
	// Reset makes the current instant the new reference.
	Reset()
	// ResetAt returns the reference instant set by the last Reset.
	ResetAt() time.Time
	// Elapsed returns the time since the last Reset. It is never negative.
	Elapsed() time.Duration
}

// System is a Clock backed by the runtime's monotonic clock.
type System struct {
	mu  sync.RWMutex
	ref time.Time
}

// NewSystem creates a system clock reset to now.
func NewSystem() *System {
	return &System{ref: time.Now()}
}

func (c *System) Now() time.Time {
	return time.Now()
}

func (c *System) Reset() {
	c.mu.Lock()
	c.ref = time.Now()
	c.mu.Unlock()
}

func (c *System) ResetAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ref
}

func (c *System) Elapsed() time.Duration {
	return nonNegative(time.Since(c.ResetAt()))
}

// Manual is a Clock that only moves when Advance is called.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
	ref time.Time
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, ref: start}
}

// Advance moves the clock forward by d. Negative values are ignored.
func (c *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *Manual) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *Manual) Reset() {
	c.mu.Lock()
	c.ref = c.now
	c.mu.Unlock()
}

func (c *Manual) ResetAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ref
}

func (c *Manual) Elapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return nonNegative(c.now.Sub(c.ref))
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
