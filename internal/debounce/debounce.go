// Package debounce coalesces bursts of edits into one call.
package debounce

import (
	"sync"
	"time"
)

// Default delay between the last edit and the refresh it triggers.
const (
	DefaultDelay = 150 * time.Millisecond
	MinDelay     = 100 * time.Millisecond
	MaxDelay     = 200 * time.Millisecond
)

// Debouncer runs a function once calls to Trigger stop arriving for the
// configured delay. Every Trigger restarts the timer. The function runs on
// the timer's goroutine.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

// New creates a Debouncer calling fn. A non-positive delay means
// DefaultDelay.
func New(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Delay returns the debounce window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules fn, cancelling any call still waiting.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Flush runs a pending call now. It reports whether one was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()
	if pending {
		d.fn()
	}
	return pending
}

// Stop cancels a pending call. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
