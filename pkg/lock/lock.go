// Package lock implements the per-thread lock list (spec.md §4.5/§9,
// component C5): a LIFO of held resources/spinlocks used both to enforce
// release-in-LIFO-order and to drive forced cleanup on kill (spec.md
// §4.10 Kill, Testable Property 10).
package lock

import "github.com/go-asros/kernel/pkg/config"

// Entry is one held lock: its static kind/ceiling plus enough identity to
// release it later. Ceiling is meaningful only for resource kinds;
// spinlocks don't participate in priority-ceiling arithmetic (spec.md §4.8
// handles spinlock mutual exclusion separately).
type Entry struct {
	ResourceID      config.ResourceID
	SpinlockID      config.SpinlockID
	Kind            config.LockKind
	Ceiling         config.Priority // valid for StandardResource/InterruptResource
	PreviousPriority config.Priority // the task's live priority just before this lock raised it
}

// List is a per-thread LIFO of held locks. The zero value is an empty,
// ready-to-use list.
type List struct {
	entries []Entry
}

// Push records a newly acquired lock at the top of the stack.
func (l *List) Push(e Entry) {
	l.entries = append(l.entries, e)
}

// Top returns the most recently acquired lock, or false if the list is
// empty.
func (l *List) Top() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// PopIfTopResource pops and returns the top entry only if it matches resourceID
// (for a resource release) — releasing anything but the top is a LIFO
// violation (spec.md Testable Property 4: "Releasing a resource/spinlock
// fails with STATE unless it is at the top of the holder's lock list").
func (l *List) PopIfTopResource(resourceID config.ResourceID) (Entry, bool) {
	top, ok := l.Top()
	if !ok || top.Kind == config.SpinlockKind || top.ResourceID != resourceID {
		return Entry{}, false
	}
	l.entries = l.entries[:len(l.entries)-1]
	return top, true
}

// PopIfTopSpinlock is the spinlock analog of PopIfTopResource.
func (l *List) PopIfTopSpinlock(spinlockID config.SpinlockID) (Entry, bool) {
	top, ok := l.Top()
	if !ok || top.Kind != config.SpinlockKind || top.SpinlockID != spinlockID {
		return Entry{}, false
	}
	l.entries = l.entries[:len(l.entries)-1]
	return top, true
}

// IsEmpty reports whether the thread holds no locks.
func (l *List) IsEmpty() bool {
	return len(l.entries) == 0
}

// Len returns the number of held locks.
func (l *List) Len() int {
	return len(l.entries)
}

// DrainLIFO pops every entry top-down, invoking release for each — used by
// forced cleanup on kill (spec.md §4.5 "Forced release on task kill walks
// the list releasing locks in LIFO", §4.10 Kill, Testable Property 10:
// "locks == empty" after Kill).
func (l *List) DrainLIFO(release func(Entry)) {
	for len(l.entries) > 0 {
		top := l.entries[len(l.entries)-1]
		l.entries = l.entries[:len(l.entries)-1]
		release(top)
	}
}
