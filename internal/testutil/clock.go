// Package testutil holds test doubles shared by the use case tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
)

// Clock is a settable core.TimeProvider.
// After fires immediately so retry backoffs do not slow tests down.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at now
func NewFixedClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the frozen time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Since returns the frozen time elapsed since t
func (c *Clock) Since(t time.Time) core.Duration {
	return core.Duration(c.Now().Sub(t))
}

// Until returns the frozen duration until t
func (c *Clock) Until(t time.Time) core.Duration {
	return core.Duration(t.Sub(c.Now()))
}

// After returns an already-fired channel
func (c *Clock) After(core.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

// WithTimeout uses a real timer
func (c *Clock) WithTimeout(ctx context.Context, timeout core.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout.Std())
}
