package thread

import (
	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/event"
	"github.com/go-asros/kernel/pkg/lock"
	"github.com/go-asros/kernel/pkg/sched"
	"github.com/go-asros/kernel/pkg/status"
)

// MaxServiceCallDepth bounds the per-thread service-call frame stack
// (spec.md §9 "design it as a stack of closures with fixed max depth").
const MaxServiceCallDepth = 16

// ServiceCallFrame is cleanup for one nested kernel service call, run in
// LIFO order on forced kill (spec.md §7: "release service-call frames").
type ServiceCallFrame func()

// Thread is the uniform control block shared by tasks, ISRs and hooks
// (spec.md §3 "Thread", component C6).
type Thread struct {
	InitialCallContext status.CallContext
	CurrentCallContext status.CallContext

	OwnerApplication   config.ApplicationID
	CurrentApplication config.ApplicationID
	AccessRights       uint32

	MPAccessRightsInitial uint32
	MPAccessRightsCurrent uint32

	InterruptsEnabled bool

	Locks      lock.List
	serviceCalls []ServiceCallFrame

	TraceHandle int
	FPUSlot     int

	Ctx *Context
}

// PushServiceCall records a cleanup frame for the currently executing
// service call. Panics past MaxServiceCallDepth: unbounded nesting is a
// configuration/programming error, not a recoverable condition.
func (t *Thread) PushServiceCall(frame ServiceCallFrame) {
	if len(t.serviceCalls) >= MaxServiceCallDepth {
		panic("thread: service call nesting exceeds MaxServiceCallDepth")
	}
	t.serviceCalls = append(t.serviceCalls, frame)
}

// PopServiceCall removes and runs the most recently pushed frame, the
// normal (non-kill) return path of a nested service call.
func (t *Thread) PopServiceCall() {
	n := len(t.serviceCalls)
	if n == 0 {
		return
	}
	frame := t.serviceCalls[n-1]
	t.serviceCalls = t.serviceCalls[:n-1]
	frame()
}

// ReleaseAllServiceCalls runs every pending frame LIFO and clears the
// stack — used by forced kill cleanup (spec.md §4.10 Kill).
func (t *Thread) ReleaseAllServiceCalls() {
	for n := len(t.serviceCalls); n > 0; n = len(t.serviceCalls) {
		frame := t.serviceCalls[n-1]
		t.serviceCalls = t.serviceCalls[:n-1]
		frame()
	}
}

// NewInterruptThread builds a minimal control block representing an ISR
// or hook invocation (spec.md §3 Thread, the non-task half of component
// C6): it carries call-context, owning application and interrupt state
// for service-call validation, but Sched and Ctx are left nil — ISRs and
// hooks are not scheduled entities, so callers must only pass the result
// to APIs that accept ISR/hook call contexts (ActivateTask, SetEvent,
// GetResource), never to the scheduling-specific ones (TerminateTask,
// WaitEvent, ...), which require a real Task and would nil-deref on Sched.
func NewInterruptThread(cc status.CallContext, app config.ApplicationID, accessRights uint32) *Task {
	t := &Task{}
	t.InitialCallContext = cc
	t.CurrentCallContext = cc
	t.OwnerApplication = app
	t.CurrentApplication = app
	t.AccessRights = accessRights
	t.InterruptsEnabled = true
	return t
}

// Task specializes Thread with the scheduling fields of spec.md §3 "Task"
// (component C7). Sched holds the scheduler-facing view (priority,
// activation count, round-robin); Events is this task's EventState,
// meaningful only if Extended is true.
type Task struct {
	Thread
	Sched     *sched.Task
	Events    event.State
	Extended  bool
	Core      config.CoreID
	Accessing uint32 // accessing_applications mask

	entry func(t *Task)
}

// NewTask builds a Task control block around its scheduler-facing view,
// wiring entry as the context's resumable body.
func NewTask(cfg config.TaskConfig, schedTask *sched.Task, entry func(t *Task)) *Task {
	t := &Task{
		Sched:     schedTask,
		Extended:  cfg.Extended,
		Core:      cfg.Core,
		Accessing: cfg.AccessingApplications,
		entry:     entry,
	}
	t.InitialCallContext = status.Task
	t.CurrentCallContext = status.Task
	t.OwnerApplication = cfg.OwnerApplication
	t.CurrentApplication = cfg.OwnerApplication
	t.InterruptsEnabled = true
	t.Ctx = NewContext(func(c *Context) { entry(t) })
	return t
}

// ResetContext rebuilds a fresh Context around the task's original entry
// function — used when a task with a pending queued activation finishes
// its current run (spec.md §4.10 "for tasks, re-init HAL context") so the
// next dispatch starts the task function from the top, the way a real
// per-activation HAL context reinitialization would.
func (t *Task) ResetContext() {
	t.Ctx = NewContext(func(c *Context) { t.entry(t) })
}

// Kill performs the thread-local half of forced cleanup (spec.md §4.10
// Kill, Testable Property 10): release every held lock in LIFO order via
// releaseEntry, release all service-call frames, and reinit MP access
// rights. Scheduler removal and context reinitialization are the
// caller's responsibility (pkg/core owns the scheduler and the per-core
// "abort context" policy for non-task threads).
func (t *Thread) Kill(releaseEntry func(lock.Entry)) {
	t.Locks.DrainLIFO(releaseEntry)
	t.ReleaseAllServiceCalls()
	t.MPAccessRightsCurrent = t.MPAccessRightsInitial
}

// Kill additionally clears event-wait state for a Task (spec.md §4.10
// Kill: a killed extended task's event mask no longer reflects any live
// wait).
func (t *Task) Kill(releaseEntry func(lock.Entry)) {
	t.Thread.Kill(releaseEntry)
	t.Events.Reset()
}
