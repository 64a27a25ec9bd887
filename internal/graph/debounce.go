package graph

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultDragDebounce is the trailing window after a drag ends before its
// snapshot is committed.
const DefaultDragDebounce = 100 * time.Millisecond

// Coalescer runs the most recently scheduled function once its window has
// elapsed without another Schedule call.
type Coalescer struct {
	clock  clock.Clock
	window time.Duration
	timer  *clock.Timer
	mu     sync.Mutex
}

func NewCoalescer(clk clock.Clock, window time.Duration) *Coalescer {
	if clk == nil {
		clk = clock.New()
	}
	return &Coalescer{clock: clk, window: window}
}

// Schedule replaces any pending function with fn and restarts the window.
func (c *Coalescer) Schedule(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.clock.AfterFunc(c.window, fn)
}

// Cancel drops the pending function, if any, and reports whether one was pending.
func (c *Coalescer) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer == nil {
		return false
	}
	stopped := c.timer.Stop()
	c.timer = nil
	return stopped
}
