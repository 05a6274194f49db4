// Package deque implements the fixed-capacity ring buffer of task
// references used by each scheduler priority queue (spec.md §4.1,
// component C1). Unlike a growable ring, capacity is a static
// configuration fact: enqueue past capacity is a configuration bug, not a
// runtime condition to recover from.
package deque

// Deque is a fixed-capacity ring buffer over a generic element type E
// (typically a task handle). The wrap-index technique is adapted from the
// teacher's catrate/ring.go ringBuffer (explicit cursor + modulo masking),
// generalized here to the kernel's fixed-capacity, panic-on-overflow
// semantics instead of catrate's auto-growing buffer, and tracked as a
// head index plus live count so capacity need not be a power of two
// (catrate requires that; §4.1's capacities, "max activations + 1", rarely
// are).
type Deque[E comparable] struct {
	buf   []E
	head  int
	count int
}

// New creates a Deque able to hold up to capacity elements. capacity must
// be >= 1; New panics otherwise, since an empty/full-indistinguishable
// deque (capacity 0) is always a configuration error (spec.md §4.1: "sum
// of max concurrent activations on that priority + 1").
func New[E comparable](capacity int) *Deque[E] {
	if capacity < 1 {
		panic("deque: capacity must be >= 1")
	}
	return &Deque[E]{buf: make([]E, capacity)}
}

func (d *Deque[E]) idx(offset int) int {
	n := len(d.buf)
	i := (d.head + offset) % n
	if i < 0 {
		i += n
	}
	return i
}

// Len returns the number of elements currently enqueued.
func (d *Deque[E]) Len() int {
	return d.count
}

// Cap returns the maximum number of elements the deque can hold.
func (d *Deque[E]) Cap() int {
	return len(d.buf)
}

// IsEmpty reports whether the deque currently holds no elements (spec.md
// §4.1 invariant: read_idx == write_idx).
func (d *Deque[E]) IsEmpty() bool {
	return d.count == 0
}

func (d *Deque[E]) isFull() bool {
	return d.count == len(d.buf)
}

// Enqueue inserts value at the tail. Used on task activation (fairness:
// spec.md §4.3 "insert on activation inserts at the tail").
func (d *Deque[E]) Enqueue(value E) {
	if d.isFull() {
		panic("deque: enqueue on full deque")
	}
	d.buf[d.idx(d.count)] = value
	d.count++
}

// Prepend inserts value at the head. Used when raising a task's priority
// and re-inserting it for immediate preemption (spec.md §4.3
// "increase_prio inserts at the head").
func (d *Deque[E]) Prepend(value E) {
	if d.isFull() {
		panic("deque: prepend on full deque")
	}
	d.head = d.idx(-1)
	d.buf[d.head] = value
	d.count++
}

// Peek returns the head element without removing it, and whether the
// deque was non-empty.
func (d *Deque[E]) Peek() (value E, ok bool) {
	if d.IsEmpty() {
		return value, false
	}
	return d.buf[d.head], true
}

// DeleteTop removes and returns the head element.
func (d *Deque[E]) DeleteTop() (value E, ok bool) {
	if d.IsEmpty() {
		return value, false
	}
	value = d.buf[d.head]
	d.head = d.idx(1)
	d.count--
	return value, true
}

// Delete removes the first occurrence of value, sliding all elements after
// it toward the head by one slot, so relative order of the remaining
// elements is preserved (spec.md §4.1: "delete preserves relative order of
// retained entries").
func (d *Deque[E]) Delete(value E) bool {
	found := -1
	for i := 0; i < d.count; i++ {
		if d.buf[d.idx(i)] == value {
			found = i
			break
		}
	}
	if found < 0 {
		return false
	}
	for i := found; i < d.count-1; i++ {
		d.buf[d.idx(i)] = d.buf[d.idx(i+1)]
	}
	d.count--
	return true
}

// Requeue rotates the deque by one: the head element is moved to the tail.
// O(1), used by round-robin (spec.md §4.3 round_robin_event): "rotate its
// queue via requeue".
func (d *Deque[E]) Requeue() {
	if d.IsEmpty() {
		return
	}
	head := d.buf[d.head]
	d.head = d.idx(1)
	d.buf[d.idx(d.count-1)] = head
}

// Slice returns a snapshot of the elements in head-to-tail order, for
// testing/inspection only.
func (d *Deque[E]) Slice() []E {
	out := make([]E, d.count)
	for i := 0; i < d.count; i++ {
		out[i] = d.buf[d.idx(i)]
	}
	return out
}
