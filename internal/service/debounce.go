package service

import (
	"sync"
	"time"
)

// debouncer runs the most recently scheduled func once the quiet period
// has elapsed. Scheduling replaces any pending func; Cancel drops it.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	epoch   uint64
	pending func()
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

func (d *debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.epoch++
	epoch := d.epoch
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(epoch) })
}

// Cancel drops the pending func without running it.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.epoch++
	d.pending = nil
}

// Flush runs the pending func now, on the caller's goroutine.
func (d *debouncer) Flush() {
	d.mu.Lock()
	fn := d.pending
	d.stopLocked()
	d.epoch++
	d.pending = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (d *debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *debouncer) fire(epoch uint64) {
	d.mu.Lock()
	// a timer that fired after Cancel or a newer Schedule is stale
	if epoch != d.epoch || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

func (d *debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
