// Package barrier implements the two cross-core rendezvous primitives of
// spec.md §4.6/§4.7 (components C9, C10): the counter-barrier used for
// dynamic-attendance rendezvous (start, shutdown, mode combination) and
// the boot-barrier used for the master/slave hardware-init handshake.
package barrier

import (
	"runtime"
	"sync/atomic"
)

// attendeeState is published per attendee; padded to a cache line to
// prevent false sharing between cores spinning on neighboring attendee
// slots, the same technique eventloop's FastState uses for its single
// atomic word.
type attendeeState struct {
	_        [64]byte
	attached atomic.Bool
	counter  atomic.Uint32
	_        [52]byte
}

// Counter is an N-way rendezvous barrier with a dynamically sized
// attendee set (spec.md §4.6): each attendee publishes a monotonically
// incremented counter, and Synchronize returns once every still-attached
// attendee has advanced at least as far. Counters are 32-bit and compared
// with the wrap-safe half-range rule, so the barrier survives indefinite
// operation.
type Counter struct {
	attendees []attendeeState
}

// NewCounter builds a counter-barrier for n potential attendees, indexed
// 0..n-1, all initially detached.
func NewCounter(n int) *Counter {
	return &Counter{attendees: make([]attendeeState, n)}
}

// wrapBits is the width W of the modular counter space (spec.md §4.6
// "Wrap-safety: differences are compared against the half-range threshold
// 2^(W-1)").
const wrapBits = 32

// less reports whether a is modularly less than b: (a-b) mod 2^32 >=
// 2^31 (spec.md §4.6).
func less(a, b uint32) bool {
	return a-b >= 1<<(wrapBits-1)
}

// lowestAttachedCounter scans attendees other than self, seeding the
// result from the first attached entry found and reducing at most once
// more — spec.md §4.6: "the scan short-circuits after one reduction (all
// attached cores are never more than one step apart in steady state)".
func (c *Counter) lowestAttachedCounter(self int) uint32 {
	var result uint32
	found := false
	for i := range c.attendees {
		if i == self {
			continue
		}
		a := &c.attendees[i]
		if !a.attached.Load() {
			continue
		}
		v := a.counter.Load()
		if !found {
			result = v
			found = true
			continue
		}
		if v != result {
			if less(v, result) {
				result = v
			}
			break
		}
	}
	return result
}

// Attach joins attendee self to the barrier, retrying the snapshot-then-
// publish sequence if another attendee attaches concurrently in between
// (spec.md §4.6 Attach).
func (c *Counter) Attach(self int) {
	for {
		snapshot := c.lowestAttachedCounter(self)
		a := &c.attendees[self]
		a.counter.Store(snapshot)
		a.attached.Store(true)
		if c.lowestAttachedCounter(self) == snapshot {
			return
		}
	}
}

// Detach removes attendee self from the rendezvous set without touching
// its counter (spec.md §4.6 Detach) — used when a core shuts down and
// should no longer be waited for.
func (c *Counter) Detach(self int) {
	c.attendees[self].attached.Store(false)
}

// Synchronize advances self's counter and busy-waits until every other
// attached attendee has published a counter at least as large (spec.md
// §4.6 Synchronize, Testable Property 6: "returns only when every
// attached attendee has advanced at least to caller's new counter").
func (c *Counter) Synchronize(self int) {
	a := &c.attendees[self]
	next := a.counter.Load() + 1
	a.counter.Store(next)
	for {
		ready := true
		for i := range c.attendees {
			if i == self {
				continue
			}
			o := &c.attendees[i]
			if !o.attached.Load() {
				continue
			}
			if less(o.counter.Load(), next) {
				ready = false
				break
			}
		}
		if ready {
			return
		}
		runtime.Gosched()
	}
}

// Attached reports whether attendee self is currently attached.
func (c *Counter) Attached(self int) bool {
	return c.attendees[self].attached.Load()
}
