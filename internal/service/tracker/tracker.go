// Package tracker counts outstanding downstream calls.
package tracker

import "sync/atomic"

// Tracker counts in-flight calls using atomics.
type Tracker struct {
	running atomic.Int64
}

// Start marks one call as in flight and returns the func that ends it.
func (t *Tracker) Start() (done func()) {
	t.running.Add(1)
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			t.running.Add(-1)
		}
	}
}

// Running returns the current in-flight count.
func (t *Tracker) Running() int64 { return t.running.Load() }
