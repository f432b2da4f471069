// Package debounce delays work until input pauses. Each Trigger replaces
// the pending callback; a superseded callback never runs.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs at most one pending callback after a quiet period.
type Debouncer struct {
	delay time.Duration

	mu          sync.Mutex
	timer       *time.Timer
	gen         uint64
	pending     bool
	running     int
	idle        *sync.Cond
	superseded  uint64
	onSupersede func()
}

// New returns a Debouncer that waits delay after the last Trigger.
func New(delay time.Duration) *Debouncer {
	d := &Debouncer{delay: delay}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// OnSupersede registers a hook called whenever a pending callback is replaced or cancelled.
func (d *Debouncer) OnSupersede(fn func()) {
	d.mu.Lock()
	d.onSupersede = fn
	d.mu.Unlock()
}

// Trigger schedules fn, replacing any callback still waiting.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	d.dropLocked()
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A newer Trigger or a Cancel may have won the race with this timer.
		if gen != d.gen || !d.pending {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.timer = nil
		d.running++
		d.mu.Unlock()

		defer func() {
			d.mu.Lock()
			d.running--
			d.idle.Broadcast()
			d.mu.Unlock()
		}()
		fn()
	})
	d.mu.Unlock()
}

// Cancel drops the pending callback, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.dropLocked()
	d.gen++
	d.mu.Unlock()
}

// Pending reports whether a callback is waiting to run or still running.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending || d.running > 0
}

// Wait blocks until no callback is running. It does not wait for one that
// is still in its quiet period, and must not be called from a callback.
func (d *Debouncer) Wait() {
	d.mu.Lock()
	for d.running > 0 {
		d.idle.Wait()
	}
	d.mu.Unlock()
}

// Superseded returns how many callbacks were replaced or cancelled before running.
func (d *Debouncer) Superseded() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.superseded
}

func (d *Debouncer) dropLocked() {
	if !d.pending {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.superseded++
	if d.onSupersede != nil {
		d.onSupersede()
	}
}
