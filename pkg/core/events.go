package core

import (
	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/event"
	"github.com/go-asros/kernel/pkg/sched"
	"github.com/go-asros/kernel/pkg/status"
	"github.com/go-asros/kernel/pkg/thread"
	"github.com/go-asros/kernel/pkg/xsignal"
)

// SetEvent ORs mask into target's event set (spec.md §4.4, §6 SetEvent).
// A remote target is forwarded over XSignal; a local WAITING target
// whose wait_mask now intersects the new set transitions to READY within
// the same call, before any preemption check runs, satisfying spec.md
// §5's "SetEvent must make the event visible before the target enters
// RUNNING".
func (c *Core) SetEvent(caller *thread.Task, ref TaskRef, mask event.Mask) status.Status {
	if st := checkCallContext(caller, ctxSetEvent); st != status.OK {
		return st
	}
	target, onThisCore := c.Tasks[ref.ID]
	if !onThisCore {
		if xsignal.IsCoreLocal(c.ID, ref.Core) {
			return status.ID1
		}
		// Same limitation as ActivateTask's remote path: access rights live
		// in the owning core's config, checked once the call lands there.
		var params [xsignal.MaxParams]xsignal.Param
		params[0] = xsignal.Param{Kind: xsignal.ParamTaskID, TaskID: ref.ID}
		params[1] = xsignal.Param{Kind: xsignal.ParamEventMask, Mask: mask}
		c.Hub.CallAsync(c.ID, ref.Core, xsignal.FuncSetEvent, params)
		return status.OK
	}
	if st := checkAccess(caller, target.Accessing); st != status.OK {
		return st
	}
	if !target.Extended {
		return status.NoExtendedTask
	}
	c.mu.Lock()
	_, triggered := target.Events.OrSet(mask)
	if triggered && target.Sched.State == sched.Waiting {
		c.Scheduler.Insert(target.Sched)
	}
	c.mu.Unlock()
	c.checkPreempt(caller)
	return status.OK
}

// ClearEvent clears bits in mask from caller's own event set (spec.md
// §4.4, §6 ClearEvent) — only the running task may clear its own bits.
func (c *Core) ClearEvent(caller *thread.Task, mask event.Mask) status.Status {
	if st := checkCallContext(caller, ctxClearEvent); st != status.OK {
		return st
	}
	if !caller.Extended {
		return status.NoExtendedTask
	}
	caller.Events.ClearSet(mask)
	return status.OK
}

// GetEvent reads task id's current set_mask (spec.md §4.4, §6 GetEvent).
func (c *Core) GetEvent(caller *thread.Task, id config.TaskID) (event.Mask, status.Status) {
	if st := checkCallContext(caller, ctxGetEvent); st != status.OK {
		return 0, st
	}
	t, ok := c.Tasks[id]
	if !ok {
		return 0, status.ID1
	}
	if st := checkAccess(caller, t.Accessing); st != status.OK {
		return 0, st
	}
	if !t.Extended {
		return 0, status.NoExtendedTask
	}
	return t.Events.GetSet(), status.OK
}

// WaitEvent blocks caller until any bit in mask is set (spec.md §4.4, §6
// WaitEvent): caller must be extended, hold no resources/spinlocks, and
// have interrupts enabled. Returns immediately, without blocking, if the
// event is already triggered.
func (c *Core) WaitEvent(caller *thread.Task, mask event.Mask) status.Status {
	if st := checkCallContext(caller, ctxWaitEvent); st != status.OK {
		return st
	}
	if !caller.Extended {
		return status.NoExtendedTask
	}
	if !caller.Locks.IsEmpty() {
		return status.Resource
	}
	if !caller.InterruptsEnabled {
		return status.DisabledInt
	}
	caller.Events.SetWaitMask(mask)
	if event.Triggered(caller.Events.GetSet(), mask) {
		return status.OK
	}

	c.mu.Lock()
	caller.Sched.State = sched.Waiting
	c.Scheduler.RemoveCurrent()
	c.Scheduler.InternalSchedule()
	c.mu.Unlock()

	caller.Ctx.Yield()
	return status.OK
}
