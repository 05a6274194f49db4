package core

import (
	"math/bits"

	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/sched"
	"github.com/go-asros/kernel/pkg/status"
	"github.com/go-asros/kernel/pkg/thread"
	"github.com/go-asros/kernel/pkg/xsignal"
)

// ReducedInit is stage 2 of spec.md §4.11: build the scheduler with the
// idle task, set current thread to idle, mark the core activated. Every
// AUTOSAR core runs this once at boot, before any task runs.
func (c *Core) ReducedInit(idleTaskID config.TaskID) {
	idle, ok := c.Tasks[idleTaskID]
	if !ok {
		c.panicf("core %d: idle task %d not registered", c.ID, idleTaskID)
	}
	c.idleTask = idle

	// spec.md §4.1: capacity must be >= sum of max concurrent activations
	// on that priority + 1, so every distinct task configured at a
	// priority can be queued simultaneously, each to its own activation
	// depth, while keeping the empty/full states distinguishable.
	capacities := make([]int, c.Config.NumPriorities)
	for _, t := range c.Tasks {
		capacities[t.Sched.HomePriority] += t.Sched.MaxActivations
	}
	for p := range capacities {
		capacities[p]++
	}
	c.Scheduler = sched.New(c.Config.NumPriorities, capacities, idle.Sched)
	c.activation = activated
}

// PreStartInit is stage 3 of spec.md §4.11, gated on PRESTARTTASK — a
// no-op beyond ReducedInit in this implementation, since pre-start task
// dispatch, system hooks and timing protection are out of scope (spec.md
// §1 "Out of scope... timing-protection budget enforcement"). Present so
// StartOS's "run PreStartInit if not already" call point exists.
func (c *Core) PreStartInit() {}

// StartOS runs stage 4 of spec.md §4.11 for this core: validate this
// core's own requested mode is exactly one application bit, combine it
// with every other attendee core's via the cluster's mode barrier, then
// begin scheduling. cl is nil for a single-core boot (mode is used as-is,
// skipping the barrier rendezvous). The combined, cluster-wide mode
// GetActiveApplicationMode reports may carry one bit per participating
// core (spec.md scenario S5: two cores starting distinct modes both
// observe mode_A|mode_B) — only each core's own contribution is required
// to be a single bit.
func (c *Core) StartOS(mode uint32, cl *Cluster) {
	if bits.OnesCount32(mode) != 1 {
		c.panicf("core %d: StartOS mode %#x is not a single application bit", c.ID, mode)
	}
	c.applicationMode = mode
	combined := mode
	if cl != nil {
		combined = cl.combineApplicationMode(c, mode)
	}
	c.applicationMode = combined
	c.activation = running

	for _, t := range c.Tasks {
		if t == c.idleTask {
			continue
		}
		// CoreInit's "app start": tasks configured auto-start for this
		// mode are the boot orchestrator's responsibility (it calls
		// ActivateTask before StartOS returns control to Run), so there
		// is nothing else to do here beyond marking the core running.
		_ = t
	}
}

// GetActiveApplicationMode returns the combined application mode this
// core settled on during StartOS (spec.md §6 Introspection).
func (c *Core) GetActiveApplicationMode() uint32 {
	return c.applicationMode
}

// StartCore records a cross-core start request (spec.md §4.11 "StartCore
// requests: StartCore(id) records request in
// CoreStartRequests[caller][target]"). Two concurrent requesters for the
// same target is a kernel panic (spec.md §4.11).
func (c *Core) StartCore(caller config.CoreID, target config.CoreID) status.Status {
	if _, ok := c.System.CoreByID(target); !ok {
		return status.ID1
	}
	if existing, ok := c.coreStartRequests[target]; ok && existing != caller {
		c.panicf("core %d: concurrent StartCore requesters for core %d: %d and %d", c.ID, target, existing, caller)
	}
	c.coreStartRequests[target] = caller
	return status.OK
}

// GetCoreStartState reports whether core target was requested to start,
// and by whom (spec.md §6 "GetCoreStartState").
func (c *Core) GetCoreStartState(target config.CoreID) (config.CoreID, bool) {
	requester, ok := c.coreStartRequests[target]
	return requester, ok
}

// ShutdownOS aborts this core (spec.md §4.11 Shutdown): kills every
// non-idle task, synchronizes (or detaches from) the shutdown barrier,
// then kernel-panics — shutdown never returns.
func (c *Core) ShutdownOS(err status.Status, cl *Cluster, synchronize bool) {
	c.mu.Lock()
	c.shutdownRequested = true
	c.shutdownStatus = err
	for id, t := range c.Tasks {
		if t == c.idleTask {
			continue
		}
		c.killTask(t)
		delete(c.Tasks, id)
	}
	c.mu.Unlock()

	if cl != nil {
		if synchronize {
			cl.ShutdownBarrier.Synchronize(cl.index(c.ID))
		} else {
			cl.ShutdownBarrier.Detach(cl.index(c.ID))
		}
	}

	c.panicf("core %d: ShutdownOS(%v)", c.ID, err)
}

// ShutdownAllCores broadcasts an asynchronous shutdown XSignal to every
// other ASR core in cl, then shuts down locally (spec.md §4.11
// "ShutdownAllCores broadcasts asynchronous shutdown XSignal to every
// other ASR core then shuts down local").
func (c *Core) ShutdownAllCores(err status.Status, cl *Cluster) {
	for _, other := range cl.Cores {
		if other.ID == c.ID {
			continue
		}
		var params [xsignal.MaxParams]xsignal.Param
		params[0] = xsignal.Param{Kind: xsignal.ParamStatus, Status: err}
		c.Hub.CallAsync(c.ID, other.ID, xsignal.FuncShutdownAllCores, params)
	}
	c.ShutdownOS(err, cl, false)
}

// killTask runs the forced-cleanup path of spec.md §4.10 Kill: release
// locks, service calls, MP rights, event state, then remove every
// scheduler entry for the task.
func (c *Core) killTask(t *thread.Task) {
	t.Kill(c.releaseLockEntry)
	c.Scheduler.RemoveTaskAll(t.Sched)
}
