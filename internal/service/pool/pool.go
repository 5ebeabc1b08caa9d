// Package pool bounds the tracking calls one orders hop has outstanding,
// summed over every request it is serving.
//
// Each fan-out branch holds a slot for the duration of its downstream call,
// so a burst of customers with many orders queues at the hop instead of
// opening an unbounded number of connections to tracking.
package pool

import "context"

// MaxSize caps the number of slots a pool can hold.
const MaxSize = 256

// Pool is a counting semaphore of branch slots. Use New; the zero value has
// no slots.
type Pool struct {
	slots chan struct{}
}

// New creates a pool of size slots, clamped to 1..MaxSize.
func New(size int) *Pool {
	return &Pool{slots: make(chan struct{}, max(1, min(size, MaxSize)))}
}

// Acquire takes a slot for one branch, waiting while all are held. A branch
// whose context is already done never takes a slot, even if one is free.
func (p *Pool) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire. Releasing more slots than were
// acquired panics.
func (p *Pool) Release() {
	select {
	case <-p.slots:
	default:
		panic("pool: release without acquire")
	}
}

// Size is the number of slots.
func (p *Pool) Size() int { return cap(p.slots) }

// InUse is the number of slots held by branches right now.
func (p *Pool) InUse() int { return len(p.slots) }
