package testutil

import (
	"sync"
	"time"
)

// BaseTime is the frozen instant deterministic clocks start from.
// Audit timestamps in golden files are derived from it.
var BaseTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// FrozenClock provides a deterministic time source for tests.
//
// Each call to Now() returns the current instant and then advances it by
// a fixed step, so successive audit records carry distinct but
// reproducible timestamps. Unlike time.Now, FrozenClock can be reset for
// test reuse.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FrozenClock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	now  time.Time
}

// NewFrozenClock creates a clock frozen at BaseTime that advances one
// second per Now() call.
func NewFrozenClock() *FrozenClock {
	return NewFrozenClockAt(BaseTime, time.Second)
}

// NewFrozenClockAt creates a clock frozen at base, advancing by step per
// Now() call. A zero step yields the same instant forever.
func NewFrozenClockAt(base time.Time, step time.Duration) *FrozenClock {
	return &FrozenClock{base: base, step: step, now: base}
}

// Now returns the current instant and advances the clock by one step.
//
// Satisfies the engine.WithClock option signature when passed as a
// method value: engine.WithClock(clock.Now).
func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Current returns the current instant without advancing.
func (c *FrozenClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its base instant.
func (c *FrozenClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.base
}
