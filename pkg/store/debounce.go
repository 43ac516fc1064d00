package store

import (
	"sync"
	"time"
)

// debouncer collapses bursts of triggers into one delayed call. It holds at
// most one pending timer. Schedule and Cancel must be called with lock held;
// fn runs with lock held.
type debouncer struct {
	lock  sync.Locker
	delay time.Duration
	fn    func()

	timer *time.Timer
	gen   uint64
}

func newDebouncer(lock sync.Locker, delay time.Duration, fn func()) *debouncer {
	return &debouncer{lock: lock, delay: delay, fn: fn}
}

// Schedule starts the timer, replacing any pending one. It reports whether a
// pending call was replaced.
func (d *debouncer) Schedule() bool {
	replaced := d.stop()
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.lock.Lock()
		defer d.lock.Unlock()
		// A newer Schedule or Cancel happened after this timer fired
		// but before it got the lock.
		if gen != d.gen {
			return
		}
		d.timer = nil
		d.fn()
	})
	return replaced
}

// Cancel drops any pending call.
func (d *debouncer) Cancel() {
	d.stop()
	d.gen++
}

// Pending reports whether a call is scheduled.
func (d *debouncer) Pending() bool {
	return d.timer != nil
}

func (d *debouncer) stop() bool {
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}
