package testutil

import (
	"sync"
	"time"

	"github.com/OybekDeveloper/leora/internal/date"
)

// Clock is a settable calendar clock for tests.
//
// Today returns the current test date; Now returns noon UTC of that date
// plus one nanosecond per call, so creation timestamps stay strictly
// increasing within a test.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu    sync.Mutex
	today date.Date
	ticks int64
}

// NewClock creates a clock standing on today.
func NewClock(today date.Date) *Clock {
	return &Clock{today: today}
}

// Today returns the current test date.
func (c *Clock) Today() date.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today
}

// Now returns a timestamp on the current test date.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
	return c.today.Time().Add(12*time.Hour + time.Duration(c.ticks))
}

// Set moves the clock to d. Moving backwards is allowed; tests use it to
// simulate a device whose date was changed.
func (c *Clock) Set(d date.Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = d
}

// Advance moves the clock forward by n days.
func (c *Clock) Advance(n int) date.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = c.today.AddDays(n)
	return c.today
}
