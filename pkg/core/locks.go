package core

import (
	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/lock"
	"github.com/go-asros/kernel/pkg/status"
	"github.com/go-asros/kernel/pkg/thread"
)

// releaseLockEntry is the generic per-entry release callback threaded
// through lock.List.DrainLIFO and thread.Thread.Kill: it releases
// whichever concrete object e names, without touching the scheduler —
// callers that need the priority-ceiling side effect (the normal,
// non-kill release path) handle that themselves (see ReleaseResource).
func (c *Core) releaseLockEntry(e lock.Entry) {
	if e.Kind == config.SpinlockKind {
		if s, ok := c.spinlocks[e.SpinlockID]; ok {
			s.Unlock(c.System.Options.KillingSupported)
		}
		return
	}
	if r, ok := c.resources[e.ResourceID]; ok {
		r.held = false
		r.heldBy = nil
	}
}

// GetResource acquires a priority-ceiling resource for caller (spec.md
// §4.5, §6 GetResource): pushes a lock-list entry and, if the resource's
// ceiling outranks the caller's current dispatch priority, raises it
// immediately.
func (c *Core) GetResource(caller *thread.Task, id config.ResourceID) status.Status {
	if st := checkCallContext(caller, ctxGetResource); st != status.OK {
		return st
	}
	r, ok := c.resources[id]
	if !ok {
		return status.ID1
	}
	if st := checkAccess(caller, r.cfg.AccessingApplications); st != status.OK {
		return st
	}
	if r.held {
		return status.State
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, currentPriority := c.Scheduler.Current()
	prev := currentPriority
	r.held = true
	r.heldBy = caller
	caller.Locks.Push(lock.Entry{
		ResourceID:       id,
		Kind:             r.cfg.Kind,
		Ceiling:          r.cfg.Ceiling,
		PreviousPriority: prev,
	})
	if r.cfg.Ceiling.Less(currentPriority) {
		c.Scheduler.IncreasePrio(r.cfg.Ceiling)
	}
	if r.cfg.Kind == config.InterruptResource && caller != nil {
		caller.InterruptsEnabled = false
	}
	return status.OK
}

// ReleaseResource releases caller's top-of-stack resource (spec.md §4.5,
// §6 ReleaseResource): the lock-list top must be id, enforcing LIFO
// release order (Testable Property 4). Dropping the ceiling may make a
// higher-priority task ready to preempt, checked via checkPreempt.
func (c *Core) ReleaseResource(caller *thread.Task, id config.ResourceID) status.Status {
	if st := checkCallContext(caller, ctxReleaseResource); st != status.OK {
		return st
	}
	entry, ok := caller.Locks.PopIfTopResource(id)
	if !ok {
		return status.State
	}
	r := c.resources[id]

	c.mu.Lock()
	r.held = false
	r.heldBy = nil
	if _, currentPriority := c.Scheduler.Current(); currentPriority == entry.Ceiling {
		c.Scheduler.DecreasePrio(entry.PreviousPriority)
	}
	c.mu.Unlock()

	if entry.Kind == config.InterruptResource {
		caller.InterruptsEnabled = true
	}

	c.checkPreempt(caller)
	return status.OK
}

// GetSpinlock blocks until spinlock id is acquired (spec.md §4.8 lock,
// §6 GetSpinlock). Access is validated against the caller's application
// bit.
func (c *Core) GetSpinlock(caller *thread.Task, id config.SpinlockID, appBit uint32) status.Status {
	s, ok := c.spinlocks[id]
	if !ok {
		return status.ID1
	}
	if !s.Allowed(appBit) {
		return status.Access
	}
	s.Lock(int64(caller.Sched.ID), c.System.Options.KillingSupported)
	caller.Locks.Push(lock.Entry{SpinlockID: id, Kind: config.SpinlockKind})
	return status.OK
}

// TryToGetSpinlock attempts a single non-blocking acquisition (spec.md
// §4.8 try_lock, §6 TryToGetSpinlock), returning whether it succeeded.
func (c *Core) TryToGetSpinlock(caller *thread.Task, id config.SpinlockID, appBit uint32) (bool, status.Status) {
	s, ok := c.spinlocks[id]
	if !ok {
		return false, status.ID1
	}
	if !s.Allowed(appBit) {
		return false, status.Access
	}
	if !s.TryLock(int64(caller.Sched.ID), c.System.Options.KillingSupported) {
		return false, status.OK
	}
	caller.Locks.Push(lock.Entry{SpinlockID: id, Kind: config.SpinlockKind})
	return true, status.OK
}

// ReleaseSpinlock releases caller's top-of-stack spinlock (spec.md §4.8
// unlock, §6 ReleaseSpinlock); like resources, release must be LIFO, and
// releasing anything but the top of the lock list reports State.
func (c *Core) ReleaseSpinlock(caller *thread.Task, id config.SpinlockID) status.Status {
	_, ok := caller.Locks.PopIfTopSpinlock(id)
	if !ok {
		return status.State
	}
	c.spinlocks[id].Unlock(c.System.Options.KillingSupported)
	return status.OK
}

// BarrierSynchronize rendezvouses caller's core on the user barrier id
// (spec.md §6 "Barriers (user): BarrierSynchronize(id)").
func (c *Core) BarrierSynchronize(id config.BarrierID) status.Status {
	b, ok := c.barriers[id]
	if !ok {
		return status.ID1
	}
	if !b.Attached(c.barrierIndex) {
		return status.NoBarrierParticipant
	}
	b.Synchronize(c.barrierIndex)
	return status.OK
}
