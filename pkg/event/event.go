// Package event implements the EventState primitive (spec.md §4.4,
// component C4) used by extended tasks to block until application-defined
// bits are set. The state itself is pure data plus mask arithmetic; the
// scheduler interaction (transitioning WAITING -> READY) lives in
// pkg/core, which owns both the scheduler and the event state together
// under one interrupt-suspend critical section, per spec.md §5's ordering
// guarantee.
package event

import "sync/atomic"

// Mask is the event bit-mask width. 64 bits covers every configuration
// this kernel targets; spec.md's "mask widths larger than a machine word"
// note is handled by State's read-stable GetSet loop regardless, so a
// wider backing type could be substituted without changing callers.
type Mask = uint64

// State is one task's (set_mask, wait_mask) pair (spec.md §3). set and
// wait are stored as independent atomic words so GetSet (used by GetEvent)
// can be read concurrently with a SetEvent arriving from another core's
// XSignal delivery without requiring the caller to hold the scheduler's
// interrupt-suspend lock just to read.
type State struct {
	set  atomic.Uint64
	wait atomic.Uint64
}

// Triggered reports whether set & wait != 0: "event triggered for this
// task" (spec.md §3).
func Triggered(set, wait Mask) bool {
	return set&wait != 0
}

// GetSet returns the current set_mask via a read-stable loop: re-read
// until two consecutive reads agree, tolerating a concurrent SetEvent
// landing mid-read (spec.md §4.4 GetEvent, Testable Property 9). For a
// single atomic word this is a belt-and-braces re-read rather than a
// strict necessity, but it is the technique spec.md specifies for masks
// wider than a machine word, and is kept here so widening Mask later
// needs no call-site changes.
func (s *State) GetSet() Mask {
	for {
		a := s.set.Load()
		b := s.set.Load()
		if a == b {
			return a
		}
	}
}

// WaitMask returns the current wait_mask.
func (s *State) WaitMask() Mask {
	return s.wait.Load()
}

// SetWaitMask installs a new wait_mask (WaitEvent, before blocking).
func (s *State) SetWaitMask(mask Mask) {
	s.wait.Store(mask)
}

// OrSet ORs mask into set_mask (SetEvent) and returns the resulting
// set_mask and whether the event is now triggered against the current
// wait_mask. Callers must hold the owning core's interrupt-suspend while
// calling this and acting on the returned triggered flag, so the
// WAITING->READY transition (if any) is atomic with the mask update
// (spec.md §5: "SetEvent must make the event visible before the target
// enters RUNNING").
func (s *State) OrSet(mask Mask) (newSet Mask, triggered bool) {
	s.set.Or(mask)
	newSet = s.set.Load()
	return newSet, Triggered(newSet, s.wait.Load())
}

// ClearSet clears bits in mask from set_mask (ClearEvent): only the
// running task may clear its own event bits (spec.md §4.4).
func (s *State) ClearSet(mask Mask) {
	s.set.And(^mask)
}

// Reset clears both masks, used when a task is (re)activated or killed —
// stale event state must not leak into the next activation.
func (s *State) Reset() {
	s.set.Store(0)
	s.wait.Store(0)
}
