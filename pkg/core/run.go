package core

import (
	"context"

	"github.com/go-asros/kernel/pkg/status"
)

// Run is the core's dispatch loop (spec.md §5, §9 "one driver goroutine
// per simulated core"): each iteration applies any scheduling decisions
// queued since the last one (InternalSchedule), then resumes whichever
// task the scheduler names current. The resumed task's own goroutine runs
// until it yields back at one of the well-defined points in checkPreempt/
// TerminateTask/WaitEvent, handing control back to this loop. Returns the
// recovered kernel panic, if this core raised one (spec.md §7); never
// returns a non-nil error for any other reason.
func (c *Core) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*status.PanicError)
			if !ok {
				panic(r)
			}
			err = pe
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c.mu.Lock()
		if c.shutdownRequested && c.activation != shutdown {
			cl := c.cluster
			st := c.shutdownStatus
			c.activation = shutdown
			c.mu.Unlock()
			c.ShutdownOS(st, cl, true)
			return nil // unreachable: ShutdownOS never returns
		}
		c.Scheduler.InternalSchedule()
		cur, _ := c.Scheduler.Current()
		task := c.Tasks[cur.ID]
		c.mu.Unlock()

		if task == nil {
			continue
		}
		task.Ctx.Resume()
	}
}
