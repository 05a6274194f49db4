// Package core implements the core-local runtime (spec.md §4.11/§9,
// component C8) and the public kernel service API of spec.md §6: every
// exported method here is one API entry, taking the calling thread (nil
// for calls made outside any thread, e.g. during boot) and returning a
// status.Status, never a Go error — recoverable kernel conditions are
// data, not exceptions (spec.md §7 "APIs never longjmp").
package core

import (
	"fmt"
	"sync"

	"github.com/go-asros/kernel/pkg/barrier"
	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/klog"
	"github.com/go-asros/kernel/pkg/sched"
	"github.com/go-asros/kernel/pkg/spinlock"
	"github.com/go-asros/kernel/pkg/status"
	"github.com/go-asros/kernel/pkg/thread"
	"github.com/go-asros/kernel/pkg/xsignal"
)

// activationState mirrors the per-core status word's activation_state
// field (spec.md §6 "Persisted/shared state layout").
type activationState int

const (
	notStarted activationState = iota
	activated
	running
	shutdown
)

// localResource is a priority-ceiling resource owned by this core: under
// the immediate-ceiling protocol, "locking" it is entirely expressed by
// raising the holder's scheduler priority, so the only state this type
// needs track is whether it is currently held (spec.md §4.5).
type localResource struct {
	cfg    config.ResourceConfig
	held   bool
	heldBy *thread.Task
}

// Core is one core's local runtime: its scheduler, thread table, local
// resources/spinlocks/barriers, and a channel into the cross-core
// signaling fabric (spec.md §4.11, component C8: "owns C3, the current
// thread slot, the interrupted-thread stack, per-core status, idle
// task").
type Core struct {
	ID     config.CoreID
	Config config.CoreConfig
	System *config.System

	Scheduler *sched.Scheduler
	Tasks     map[config.TaskID]*thread.Task
	idleTask  *thread.Task

	resources map[config.ResourceID]*localResource
	spinlocks map[config.SpinlockID]*spinlock.Spinlock
	barriers  map[config.BarrierID]*barrier.Counter

	Hub     *xsignal.Hub
	Log     *klog.Logger
	cluster *Cluster // set by NewCluster; nil for a single-core boot

	// barrierIndex is this core's attendee index, shared consistently
	// across every barrier.Counter in the owning Cluster (global core
	// index, not per-barrier) — set by Cluster during wiring.
	barrierIndex int

	// mu models the per-core interrupt-suspend critical section (spec.md
	// §5 "updates to scheduler and task state are serialized under
	// interrupt-suspend"): a single goroutine per core already makes task
	// code and this core's own Run loop mutually exclusive, but XSignal
	// handlers run on the core's separate Hub.Serve goroutine, and
	// simulated ISR callers run on goroutines of their own, so the lock
	// is kept explicit rather than relying on the absence of real
	// preemption.
	mu sync.Mutex

	activation          activationState
	applicationMode     uint32
	criticalUserSection int
	coreStartRequests   map[config.CoreID]config.CoreID // target -> first requester

	interruptedThreads []*thread.Thread // bounded per-core LIFO, spec.md §4.10

	shutdownRequested bool
	shutdownStatus    status.Status
}

// MaxInterruptedThreads bounds the per-core interrupted-thread LIFO
// (spec.md §4.10 "MAX_INTERRUPTED_THREADS").
const MaxInterruptedThreads = 8

// New constructs a Core for cfg, wired to sys for cross-core lookups and
// hub for XSignal dispatch. Tasks/resources/spinlocks/barriers are
// populated by the caller (typically the boot orchestrator in
// pkg/core/cluster.go) via the Add* methods before ReducedInit runs.
func New(cfg config.CoreConfig, sys *config.System, hub *xsignal.Hub, log *klog.Logger) *Core {
	return &Core{
		ID:                cfg.ID,
		Config:            cfg,
		System:            sys,
		Tasks:             make(map[config.TaskID]*thread.Task),
		resources:         make(map[config.ResourceID]*localResource),
		spinlocks:         make(map[config.SpinlockID]*spinlock.Spinlock),
		barriers:          make(map[config.BarrierID]*barrier.Counter),
		Hub:               hub,
		Log:               log.WithCore(int(cfg.ID)),
		coreStartRequests: make(map[config.CoreID]config.CoreID),
	}
}

// AddTask registers a task control block with this core, including its
// scheduling view with the scheduler (but not yet runnable — ReducedInit
// builds the scheduler once the idle task is known).
func (c *Core) AddTask(t *thread.Task) {
	c.Tasks[t.Sched.ID] = t
}

// AddResource registers a locally owned resource.
func (c *Core) AddResource(cfg config.ResourceConfig) {
	c.resources[cfg.ID] = &localResource{cfg: cfg}
}

// AddSpinlock registers a spinlock this core participates in (spinlock
// state itself is shared cross-core, so in a real deployment this would
// be a pointer into shared memory — here, a pointer shared by every Core
// in the same Cluster).
func (c *Core) AddSpinlock(s *spinlock.Spinlock) {
	c.spinlocks[s.ID] = s
}

// AddBarrier registers a user counter-barrier this core attends.
func (c *Core) AddBarrier(id config.BarrierID, b *barrier.Counter) {
	c.barriers[id] = b
}

// GetCoreID returns this core's own id (spec.md §6 Core control).
func (c *Core) GetCoreID() config.CoreID {
	return c.ID
}

// taskByID resolves a TaskID to its control block, reporting ID1 if
// unknown.
func (c *Core) taskByID(id config.TaskID) (*thread.Task, status.Status) {
	t, ok := c.Tasks[id]
	if !ok {
		return nil, status.ID1
	}
	return t, status.OK
}

// checkPreempt promotes the scheduler's next task to current if a switch
// is needed and parks caller's context, the cooperative preemption point
// spec.md §5 places at "service returns" (also used directly by
// WaitEvent/TerminateTask/ChainTask for their own, slightly different,
// switch sequences). No-op if caller is nil (a boot-time or non-task
// caller) or no switch is needed. The scheduler decision is made under
// mu, but mu is released before parking: caller.Ctx.Yield() blocks this
// goroutine until the next Resume, and the driver loop (Run) needs mu to
// make its own next dispatch decision in the meantime.
func (c *Core) checkPreempt(caller *thread.Task) {
	if caller == nil || caller.Ctx == nil {
		return
	}
	c.mu.Lock()
	needed := c.Scheduler.TaskSwitchNeeded()
	if needed {
		c.Scheduler.InternalSchedule()
	}
	c.mu.Unlock()
	if needed {
		caller.Ctx.Yield()
	}
}

// EnterInterruptContext builds an ISR/hook pseudo-thread (spec.md §4.10,
// component C6's non-task half) and pushes the currently running thread
// onto the bounded interrupted-thread LIFO, so that a nested service call
// made from within the ISR/hook can still answer "who was interrupted"
// by walking the stack from the top down. The returned func pops the
// entry; callers invoke it on the ISR/hook's return path (typically via
// defer).
func (c *Core) EnterInterruptContext(cc status.CallContext, app config.ApplicationID, accessRights uint32) (*thread.Task, func()) {
	isr := thread.NewInterruptThread(cc, app, accessRights)

	c.mu.Lock()
	if len(c.interruptedThreads) >= MaxInterruptedThreads {
		c.mu.Unlock()
		c.panicf("core: interrupted-thread stack overflow (max %d)", MaxInterruptedThreads)
	}
	var interrupted *thread.Thread
	if cur, _ := c.Scheduler.Current(); cur != nil {
		if t, ok := c.Tasks[cur.ID]; ok {
			interrupted = &t.Thread
		}
	}
	c.interruptedThreads = append(c.interruptedThreads, interrupted)
	c.mu.Unlock()

	return isr, func() {
		c.mu.Lock()
		n := len(c.interruptedThreads)
		if n > 0 {
			c.interruptedThreads = c.interruptedThreads[:n-1]
		}
		c.mu.Unlock()
	}
}

// InterruptedThread reports the thread interrupted by the innermost
// currently active ISR/hook on this core, or nil if none is active
// (spec.md §4.10 "service-call context lookups... walk from top
// downward").
func (c *Core) InterruptedThread() *thread.Thread {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.interruptedThreads)
	if n == 0 {
		return nil
	}
	return c.interruptedThreads[n-1]
}

// panicf raises a kernel panic for an impossible-state condition (spec.md
// §7 channel 3: "An assertion or an impossible-state condition.
// Non-returning").
func (c *Core) panicf(format string, args ...any) {
	c.Log.Emergency(fmt.Sprintf(format, args...))
	status.Panic(int(c.ID), format, args...)
}
