// Package spinlock implements the user spinlock primitive of spec.md
// §4.8 (component C11): a HAL test-and-set cell with an optional owner
// record, used for short critical sections across cores that resource
// priority-ceiling locking (pkg/lock) cannot express because it has no
// notion of core-local priority.
package spinlock

import (
	"runtime"
	"sync/atomic"

	"github.com/go-asros/kernel/pkg/config"
)

// noOwner is the owner_thread sentinel meaning "unlocked" or "ownership
// not tracked" (KILLING_SUPPORTED off).
const noOwner = -1

// Spinlock is one spinlock cell (spec.md §3 "Spinlock: HAL test-and-set
// cell + owner_thread (when ownership tracking enabled)").
type Spinlock struct {
	ID                    config.SpinlockID
	AccessingApplications uint32

	locked atomic.Bool
	owner  atomic.Int64 // thread identity, meaningful only if killingSupported
}

// New constructs a spinlock from its static configuration, unlocked.
func New(cfg config.SpinlockConfig) *Spinlock {
	s := &Spinlock{ID: cfg.ID, AccessingApplications: cfg.AccessingApplications}
	s.owner.Store(noOwner)
	return s
}

// Allowed reports whether an application identified by appBit (its
// accessing_applications single-bit mask) may use this spinlock.
func (s *Spinlock) Allowed(appBit uint32) bool {
	return s.AccessingApplications&appBit != 0
}

// TryLock attempts the HAL test-and-set once, non-blocking (spec.md §4.8
// try_lock). On success, if killingSupported, owner is recorded under the
// (simulated) local interrupt-suspend that CompareAndSwap already gives
// us atomically; on failure, state is left untouched.
func (s *Spinlock) TryLock(ownerThread int64, killingSupported bool) bool {
	if !s.locked.CompareAndSwap(false, true) {
		return false
	}
	if killingSupported {
		s.owner.Store(ownerThread)
	}
	return true
}

// Lock spins while the cell is held, attempting TryLock on every
// iteration, stopping on first success (spec.md §4.8 lock: "loop — spin
// while is_locked, then try_lock; stop on success").
func (s *Spinlock) Lock(ownerThread int64, killingSupported bool) {
	for {
		for s.locked.Load() {
			runtime.Gosched()
		}
		if s.TryLock(ownerThread, killingSupported) {
			return
		}
	}
}

// Unlock releases the cell: a release-ordered store, then (if
// killingSupported) clearing owner_thread (spec.md §4.8 unlock).
// Testable Property 7 ("unlock publishes before the next lock can
// observe free") holds because locked is a single atomic word observed by
// Lock/TryLock's CompareAndSwap.
func (s *Spinlock) Unlock(killingSupported bool) {
	if killingSupported {
		s.owner.Store(noOwner)
	}
	s.locked.Store(false)
}

// IsLocked reports whether the cell is currently held by any thread on
// any core.
func (s *Spinlock) IsLocked() bool {
	return s.locked.Load()
}

// Owner returns the recorded owner thread identity, valid only when
// killing support is enabled and the lock is held.
func (s *Spinlock) Owner() int64 {
	return s.owner.Load()
}
