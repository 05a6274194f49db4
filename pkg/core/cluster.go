package core

import (
	"context"
	"sync"

	"github.com/go-asros/kernel/pkg/barrier"
	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/klog"
	"github.com/go-asros/kernel/pkg/sched"
	"github.com/go-asros/kernel/pkg/status"
	"github.com/go-asros/kernel/pkg/xsignal"
	"golang.org/x/sync/errgroup"
)

// Cluster owns every Core in one kernel image plus the primitives that
// only make sense at that scope (spec.md §4.11/§4.7, component C13): the
// XSignal hub, one boot-barrier per auto-started slave core, the
// shutdown rendezvous barrier, and the combined application-mode word
// StartOS publishes across attendee cores.
type Cluster struct {
	System *config.System
	Cores  []*Core
	Hub    *xsignal.Hub

	ShutdownBarrier *barrier.Counter

	boots map[config.CoreID]*barrier.Boot

	modeMu       sync.Mutex
	combinedMode uint32
	modeBarrier  *barrier.Counter
}

// NewCluster builds a Cluster and every Core it contains, wired to a
// shared Hub, but does not yet run any boot stage — call Boot once the
// caller has finished populating each Core's tasks/resources/spinlocks
// via the Add* methods.
func NewCluster(sys *config.System, log *klog.Logger) *Cluster {
	ids := make([]config.CoreID, len(sys.Cores))
	for i, cc := range sys.Cores {
		ids[i] = cc.ID
	}
	hub := xsignal.NewHub(ids, 32)

	cl := &Cluster{
		System:          sys,
		Hub:             hub,
		ShutdownBarrier: barrier.NewCounter(len(sys.Cores)),
		modeBarrier:     barrier.NewCounter(len(sys.Cores)),
		boots:           make(map[config.CoreID]*barrier.Boot),
	}
	for i, cc := range sys.Cores {
		c := New(cc, sys, hub, log)
		c.cluster = cl
		c.barrierIndex = i
		cl.Cores = append(cl.Cores, c)
		cl.ShutdownBarrier.Attach(i)
		cl.modeBarrier.Attach(i)
		if cc.AutoStart && !cc.IsHWInitCore {
			cl.boots[cc.ID] = barrier.NewBoot()
		}
	}
	cl.registerXSignalHandlers()
	return cl
}

// index returns c's position in Cores, the attendee index every
// cluster-wide barrier.Counter uses for it.
func (cl *Cluster) index(id config.CoreID) int {
	for i, c := range cl.Cores {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// CoreByID resolves id to its Core, or false if unknown.
func (cl *Cluster) CoreByID(id config.CoreID) (*Core, bool) {
	i := cl.index(id)
	if i < 0 {
		return nil, false
	}
	return cl.Cores[i], true
}

// hwInitCore returns the single core configured IsHWInitCore (spec.md
// §4.7: exactly one, enforced by config.System.Validate), the master side
// of every boot-barrier handshake.
func (cl *Cluster) hwInitCore() *Core {
	for _, c := range cl.Cores {
		if c.Config.IsHWInitCore {
			return c
		}
	}
	return nil
}

// combineApplicationMode ORs mode into the cluster-wide combined word,
// rendezvouses every attendee core on modeBarrier so no core reads the
// result before every other core has contributed its bit, then returns
// the settled value (spec.md §4.11 StartOS, scenario S5).
func (cl *Cluster) combineApplicationMode(c *Core, mode uint32) uint32 {
	cl.modeMu.Lock()
	cl.combinedMode |= mode
	cl.modeMu.Unlock()

	cl.modeBarrier.Synchronize(cl.index(c.ID))

	cl.modeMu.Lock()
	result := cl.combinedMode
	cl.modeMu.Unlock()
	return result
}

// Boot runs ReducedInit/PreStartInit on every core, then drives the
// master/slave boot-barrier handshake for each auto-started slave
// concurrently with the HW-init core's master side (spec.md §4.7, §4.11
// stage 1-3). idleTaskIDs supplies each core's idle task id, since the
// idle task itself is ordinary boot-time configuration, not something
// Cluster invents.
func (cl *Cluster) Boot(idleTaskIDs map[config.CoreID]config.TaskID) error {
	for _, c := range cl.Cores {
		c.ReducedInit(idleTaskIDs[c.ID])
		c.PreStartInit()
	}

	master := cl.hwInitCore()
	if master == nil || len(cl.boots) == 0 {
		return nil
	}

	var g errgroup.Group
	for _, b := range cl.boots {
		b := b
		g.Go(func() error {
			b.SlaveHandshake()
			b.SlaveAwaitStartCore()
			return nil
		})
		g.Go(func() error {
			b.MasterHandshake()
			b.MasterStartCore()
			return nil
		})
	}
	return g.Wait()
}

// StartOS runs stage 4 (spec.md §4.11) on every core in the cluster,
// combining mode across all of them via combineApplicationMode.
func (cl *Cluster) StartOS(mode uint32) {
	var g errgroup.Group
	for _, c := range cl.Cores {
		c := c
		g.Go(func() error {
			c.StartOS(mode, cl)
			return nil
		})
	}
	_ = g.Wait()
}

// registerXSignalHandlers installs the receiver-side implementation of
// every cross-core call this kernel actually originates (spec.md §4.9):
// ActivateTask and SetEvent forwards, plus the ShutdownAllCores broadcast.
// GetResource/ReleaseResource/GetEvent/TerminateTask are deliberately left
// unregistered — resources are priority-ceiling protected, which has no
// meaning across cores (AUTOSAR multicore uses spinlocks for that), and
// TerminateTask/GetEvent have no remote caller in this kernel's call
// graph. Hub.Serve already replies ID1 to an unregistered function index,
// so no explicit rejection handler is needed.
func (cl *Cluster) registerXSignalHandlers() {
	for _, c := range cl.Cores {
		c := c

		cl.Hub.RegisterHandler(c.ID, xsignal.FuncActivateTask, func(p [xsignal.MaxParams]xsignal.Param) ([xsignal.MaxParams]xsignal.Param, status.Status) {
			var out [xsignal.MaxParams]xsignal.Param
			c.mu.Lock()
			defer c.mu.Unlock()
			target, ok := c.Tasks[p[0].TaskID]
			if !ok {
				return out, status.ID1
			}
			return out, c.activateLocal(target)
		})

		cl.Hub.RegisterHandler(c.ID, xsignal.FuncSetEvent, func(p [xsignal.MaxParams]xsignal.Param) ([xsignal.MaxParams]xsignal.Param, status.Status) {
			var out [xsignal.MaxParams]xsignal.Param
			c.mu.Lock()
			defer c.mu.Unlock()
			target, ok := c.Tasks[p[0].TaskID]
			if !ok {
				return out, status.ID1
			}
			if !target.Extended {
				return out, status.NoExtendedTask
			}
			_, triggered := target.Events.OrSet(p[1].Mask)
			if triggered && target.Sched.State == sched.Waiting {
				c.Scheduler.Insert(target.Sched)
			}
			return out, status.OK
		})

		cl.Hub.RegisterHandler(c.ID, xsignal.FuncShutdownAllCores, func(p [xsignal.MaxParams]xsignal.Param) ([xsignal.MaxParams]xsignal.Param, status.Status) {
			var out [xsignal.MaxParams]xsignal.Param
			c.mu.Lock()
			c.shutdownRequested = true
			c.shutdownStatus = p[0].Status
			c.mu.Unlock()
			return out, status.OK
		})
	}
}

// Run drives every core's dispatch loop and XSignal Serve loop
// concurrently until ctx is cancelled, returning each core's terminal
// error (nil for a core that never kernel-panicked). One core's panic is
// recovered at that core's own Run boundary and does not stop the
// others — spec.md §7 scopes a kernel panic to the panicking core; callers
// that want "any core panics -> stop the cluster" wrap ctx in their own
// cancellation on a non-nil result.
func (cl *Cluster) Run(ctx context.Context) []error {
	var wg sync.WaitGroup
	errs := make([]error, len(cl.Cores))

	for i, c := range cl.Cores {
		i, c := i, c
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := cl.Hub.Serve(ctx, c.ID); err != nil && ctx.Err() == nil {
				c.Log.Warn(err.Error())
			}
		}()
		go func() {
			defer wg.Done()
			errs[i] = c.Run(ctx)
		}()
	}
	wg.Wait()
	return errs
}
