package core

import (
	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/sched"
	"github.com/go-asros/kernel/pkg/status"
	"github.com/go-asros/kernel/pkg/thread"
	"github.com/go-asros/kernel/pkg/xsignal"
)

// TaskRef names a task by id plus its owning core, letting
// ActivateTask/ChainTask route to the right Core without the caller
// needing to know locality in advance.
type TaskRef struct {
	ID   config.TaskID
	Core config.CoreID
}

// ActivateTask requests one more run of ref (spec.md §4.3, §6
// ActivateTask). A remote target is forwarded asynchronously over
// XSignal (spec.md §4.9, scenario S4); a local target at its activation
// limit reports State; otherwise its activation counter is bumped and,
// if it was Suspended, it is inserted into the ready structure.
func (c *Core) ActivateTask(caller *thread.Task, ref TaskRef) status.Status {
	if st := checkCallContext(caller, ctxActivateTask); st != status.OK {
		return st
	}
	target, onThisCore := c.Tasks[ref.ID]
	if !onThisCore {
		if xsignal.IsCoreLocal(c.ID, ref.Core) {
			return status.ID1
		}
		// Access rights are the target task's accessing_applications mask,
		// which only the owning core's config holds — a remote target's
		// rights can't be checked here, only once the XSignal call lands.
		var params [xsignal.MaxParams]xsignal.Param
		params[0] = xsignal.Param{Kind: xsignal.ParamTaskID, TaskID: ref.ID}
		c.Hub.CallAsync(c.ID, ref.Core, xsignal.FuncActivateTask, params)
		return status.OK
	}
	if st := checkAccess(caller, target.Accessing); st != status.OK {
		return st
	}
	c.mu.Lock()
	st := c.activateLocal(target)
	c.mu.Unlock()
	if st != status.OK {
		return st
	}
	c.checkPreempt(caller)
	return status.OK
}

// activateLocal performs the local half of activation, shared by
// ActivateTask, ChainTask's target-activation step, and the
// FuncActivateTask XSignal handler. Callers must hold mu.
func (c *Core) activateLocal(target *thread.Task) status.Status {
	if target.Sched.ActivationCount >= target.Sched.MaxActivations {
		return status.State
	}
	wasSuspended := target.Sched.ActivationCount == 0
	target.Sched.ActivationCount++
	if wasSuspended {
		if target.Ctx.Finished() {
			target.ResetContext()
		}
		c.Scheduler.Insert(target.Sched)
	}
	return status.OK
}

// TerminateTask ends caller's current activation (spec.md §4.3, §6
// TerminateTask): releases any remaining held locks defensively, removes
// the current scheduler entry, and if another activation is pending,
// re-queues a fresh run. The calling goroutine's entry function is
// expected to return immediately after this call (spec.md §4.10
// reset_and_resume: "drop the current context, resume next").
func (c *Core) TerminateTask(caller *thread.Task) status.Status {
	if st := checkCallContext(caller, ctxTerminateTask); st != status.OK {
		return st
	}
	caller.Locks.DrainLIFO(c.releaseLockEntry)
	c.mu.Lock()
	caller.Sched.ActivationCount--
	c.Scheduler.RemoveCurrent()
	if caller.Sched.ActivationCount > 0 {
		caller.ResetContext()
		c.Scheduler.Insert(caller.Sched)
	} else {
		caller.Sched.State = sched.Suspended
	}
	c.Scheduler.InternalSchedule()
	c.mu.Unlock()
	return status.OK
}

// ChainTask atomically terminates caller and activates ref, with exactly
// one scheduling decision between them (spec.md §4.3 ChainTask): unlike
// TerminateTask followed by ActivateTask, the target's activation is
// queued before the scheduler's next pick is computed.
func (c *Core) ChainTask(caller *thread.Task, ref TaskRef) status.Status {
	if st := checkCallContext(caller, ctxChainTask); st != status.OK {
		return st
	}
	caller.Locks.DrainLIFO(c.releaseLockEntry)

	target, onThisCore := c.Tasks[ref.ID]

	c.mu.Lock()
	defer c.mu.Unlock()

	caller.Sched.ActivationCount--
	c.Scheduler.RemoveCurrent()
	if caller.Sched.ActivationCount > 0 {
		caller.ResetContext()
		c.Scheduler.Insert(caller.Sched)
	} else {
		caller.Sched.State = sched.Suspended
	}

	var st status.Status
	if !onThisCore {
		if xsignal.IsCoreLocal(c.ID, ref.Core) {
			st = status.ID1
		} else {
			var params [xsignal.MaxParams]xsignal.Param
			params[0] = xsignal.Param{Kind: xsignal.ParamTaskID, TaskID: ref.ID}
			c.Hub.CallAsync(c.ID, ref.Core, xsignal.FuncActivateTask, params)
		}
	} else if as := checkAccess(caller, target.Accessing); as != status.OK {
		st = as
	} else {
		st = c.activateLocal(target)
	}

	c.Scheduler.InternalSchedule()
	return st
}

// Schedule voluntarily offers the processor to a higher- or equal-
// priority ready task (spec.md §6 Schedule): caller's own queue entry is
// left in place, so it resumes exactly where it left off once it's next
// dispatched.
func (c *Core) Schedule(caller *thread.Task) status.Status {
	if st := checkCallContext(caller, ctxSchedule); st != status.OK {
		return st
	}
	c.checkPreempt(caller)
	return status.OK
}

// RoundRobinTick applies one round-robin timer tick (spec.md §4.3
// round_robin_event, scenario S6): real hardware drives this from a
// periodic timer ISR, out of scope here (spec.md Non-goals), so it's
// exposed directly as a service any driver can invoke, not a user-callable
// API — it has no permitted-call-context mask of its own.
func (c *Core) RoundRobinTick(caller *thread.Task) status.Status {
	c.mu.Lock()
	c.Scheduler.RoundRobinEvent()
	c.mu.Unlock()
	c.checkPreempt(caller)
	return status.OK
}

// GetTaskID reports caller's own task id (spec.md §6 GetTaskID).
func (c *Core) GetTaskID(caller *thread.Task) config.TaskID {
	return caller.Sched.ID
}

// GetTaskState reports task id's scheduling state (spec.md §6
// GetTaskState).
func (c *Core) GetTaskState(id config.TaskID) (sched.TaskState, status.Status) {
	t, ok := c.Tasks[id]
	if !ok {
		return 0, status.ID1
	}
	return t.Sched.State, status.OK
}
