package brokerhub

import (
	"sync"
	"time"
)

// Debouncer delays a call until no other call was requested for a quiet
// period. Only the last requested call runs.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	next  func()
	gen   uint64 // bumped by every Do, Flush and Stop
}

// NewDebouncer returns a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Do schedules f, replacing any call still pending.
func (d *Debouncer) Do(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next = f
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs the pending call if no Do, Flush or Stop happened since the
// timer of generation gen was armed.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	f := d.take()
	d.mu.Unlock()
	if f != nil {
		f()
	}
}

// take clears the pending call and returns it. d.mu must be held.
func (d *Debouncer) take() func() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	f := d.next
	d.next = nil
	return f
}

// Flush runs the pending call now, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	f := d.take()
	d.mu.Unlock()
	if f != nil {
		f()
	}
}

// Stop drops the pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.take()
}
