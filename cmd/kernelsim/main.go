// Command kernelsim is an executable demonstration of the execution
// subsystem's public API: it boots a two-core cluster and drives every
// scenario spec.md §8 describes end to end, printing each decision as it
// happens. It is not a test — nothing here asserts — but every print
// follows directly from the scenario's expected sequence of events.
//
// Run with: go run ./cmd/kernelsim
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/core"
	"github.com/go-asros/kernel/pkg/klog"
	"github.com/go-asros/kernel/pkg/sched"
	"github.com/go-asros/kernel/pkg/status"
	"github.com/go-asros/kernel/pkg/thread"
	"github.com/joeycumines/logiface"

	_ "go.uber.org/automaxprocs"
)

// Task/resource ids for core A (home of S1, S2, S3, S6) and core B (the
// S4 cross-core activation target).
const (
	coreA config.CoreID = 0
	coreB config.CoreID = 1

	idleA config.TaskID = 0
	idleB config.TaskID = 1

	idTLow  config.TaskID = 10 // S1
	idTHigh config.TaskID = 11 // S1

	idT1 config.TaskID = 20 // S2
	idT2 config.TaskID = 21 // S2
	resR config.ResourceID = 22

	idTEvent config.TaskID = 30 // S3

	idRRa config.TaskID = 40 // S6
	idRRb config.TaskID = 41
	idRRc config.TaskID = 42

	idTOnB config.TaskID = 50 // S4
)

func main() {
	log := klog.New(nil, logiface.LevelInformational)

	var cA, cB *core.Core
	sys := buildSystem()

	cl := core.NewCluster(sys, log)
	cA, _ = cl.CoreByID(coreA)
	cB, _ = cl.CoreByID(coreB)

	wireTasks(cl, cA, cB)

	if err := cl.Boot(map[config.CoreID]config.TaskID{coreA: idleA, coreB: idleB}); err != nil {
		fmt.Println("boot handshake failed:", err)
		return
	}

	// S5: two cores start distinct application modes; both must observe
	// the OR of both after the internal mode barrier.
	fmt.Println("=== S5 Barrier rendezvous on mode start ===")
	const modeA, modeB = 0x1, 0x2
	done := make(chan struct{}, 2)
	go func() { cA.StartOS(modeA, cl); done <- struct{}{} }()
	go func() { cB.StartOS(modeB, cl); done <- struct{}{} }()
	<-done
	<-done
	fmt.Printf("core A active mode = %#x, core B active mode = %#x (want %#x on both)\n",
		cA.GetActiveApplicationMode(), cB.GetActiveApplicationMode(), modeA|modeB)

	// S6: three same-priority tasks round-robin. Done here, before the
	// driver loop starts, by inserting their sched.Task entries directly —
	// once Run is live, priority 7 would otherwise dispatch them ahead of
	// several of the other demo tasks.
	fmt.Println("\n=== S6 Round-robin ===")
	rrIDs := []config.TaskID{idRRa, idRRb, idRRc}
	for _, id := range rrIDs {
		cA.Scheduler.Insert(cA.Tasks[id].Sched)
	}
	cA.Scheduler.InternalSchedule() // idRRa becomes current
	fmt.Println("initial queue:", cA.Scheduler.QueueSnapshot(rrPriority))
	for round := 0; round < 3; round++ {
		for i := 0; i < 3; i++ {
			cA.RoundRobinTick(nil)
		}
		fmt.Printf("after round %d (event %d): %v\n", round+1, (round+1)*3, cA.Scheduler.QueueSnapshot(rrPriority))
	}
	for _, id := range rrIDs {
		cA.Scheduler.RemoveTaskAll(cA.Tasks[id].Sched)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cl.Hub.Serve(ctx, coreA)
	go cl.Hub.Serve(ctx, coreB)
	go cA.Run(ctx)
	go cB.Run(ctx)

	fmt.Println("\n=== S1 Preemption ===")
	cA.ActivateTask(nil, core.TaskRef{ID: idTLow, Core: coreA})
	awaitSuspended(cA, idTLow)

	fmt.Println("\n=== S2 Ceiling ===")
	cA.ActivateTask(nil, core.TaskRef{ID: idT1, Core: coreA})
	awaitSuspended(cA, idT1)

	fmt.Println("\n=== S3 Event ===")
	cA.ActivateTask(nil, core.TaskRef{ID: idTEvent, Core: coreA})
	time.Sleep(20 * time.Millisecond)
	fmt.Println("[ISR] SetEvent(T, 0x1) — T must stay WAITING")
	isr, doneISR := cA.EnterInterruptContext(status.Cat2ISR, 0, 0)
	cA.SetEvent(isr, core.TaskRef{ID: idTEvent, Core: coreA}, 0x1)
	doneISR()
	time.Sleep(20 * time.Millisecond)
	if st, _ := cA.GetTaskState(idTEvent); st != sched.Waiting {
		fmt.Println("unexpected: T left WAITING after only 0x1 was set")
	}
	fmt.Println("[ISR] SetEvent(T, 0x2) — T must become READY and observe 0x3")
	isr, doneISR = cA.EnterInterruptContext(status.Cat2ISR, 0, 0)
	cA.SetEvent(isr, core.TaskRef{ID: idTEvent, Core: coreA}, 0x2)
	doneISR()
	awaitSuspended(cA, idTEvent)

	fmt.Println("\n=== S4 Cross-core activation ===")
	cA.ActivateTask(nil, core.TaskRef{ID: idTOnB, Core: coreB})
	awaitSuspended(cB, idTOnB)

	fmt.Println("\nall scenarios complete")
}

// awaitSuspended polls GetTaskState until the task returns to SUSPENDED
// (meaning it ran to completion), standing in for the real hardware event
// a test harness would otherwise wait on.
func awaitSuspended(c *core.Core, id config.TaskID) {
	for i := 0; i < 200; i++ {
		if st, _ := c.GetTaskState(id); st == sched.Suspended {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
}

const rrPriority config.Priority = 7

// buildSystem assembles the static configuration every scenario runs
// against: a two-core system with one task table entry per scenario actor
// plus the idle task each core's ReducedInit requires.
func buildSystem() *config.System {
	return &config.System{
		Cores: []config.CoreConfig{
			{ID: coreA, IsASRCore: true, MasterStartAllowed: true, IsHWInitCore: true, NumPriorities: 32, IdlePriority: 31},
			{ID: coreB, IsASRCore: true, AutoStart: true, NumPriorities: 16, IdlePriority: 15},
		},
		Tasks: []config.TaskConfig{
			{ID: idleA, HomePriority: 31, RunningPriority: 31, MaxActivations: 1, Core: coreA},
			{ID: idleB, HomePriority: 15, RunningPriority: 15, MaxActivations: 1, Core: coreB},

			{ID: idTLow, HomePriority: 10, RunningPriority: 10, MaxActivations: 1, Core: coreA},
			{ID: idTHigh, HomePriority: 5, RunningPriority: 5, MaxActivations: 1, Core: coreA},

			{ID: idT1, HomePriority: 9, RunningPriority: 9, MaxActivations: 1, Core: coreA},
			{ID: idT2, HomePriority: 4, RunningPriority: 4, MaxActivations: 1, Core: coreA},

			{ID: idTEvent, HomePriority: 8, RunningPriority: 8, MaxActivations: 1, Extended: true, Core: coreA},

			{ID: idRRa, HomePriority: rrPriority, RunningPriority: rrPriority, MaxActivations: 1, RoundRobinCount: 3, Core: coreA},
			{ID: idRRb, HomePriority: rrPriority, RunningPriority: rrPriority, MaxActivations: 1, RoundRobinCount: 3, Core: coreA},
			{ID: idRRc, HomePriority: rrPriority, RunningPriority: rrPriority, MaxActivations: 1, RoundRobinCount: 3, Core: coreA},

			{ID: idTOnB, HomePriority: 3, RunningPriority: 3, MaxActivations: 1, Core: coreB},
		},
		Resources: []config.ResourceConfig{
			{ID: resR, Kind: config.StandardResource, Ceiling: 3, Core: coreA},
		},
		Options: config.Options{RoundRobin: true},
	}
}

// wireTasks builds every sched.Task/thread.Task and registers it with its
// owning Core, including the two idle tasks (each a tight Schedule loop,
// standing in for the HAL background loop a real idle task would run).
func wireTasks(cl *core.Cluster, cA, cB *core.Core) {
	for _, tc := range cl.System.Tasks {
		tc := tc
		owner := cA
		if tc.Core == coreB {
			owner = cB
		}

		var entry func(t *thread.Task)
		switch tc.ID {
		case idleA:
			entry = func(t *thread.Task) {
				for {
					cA.Schedule(t)
				}
			}
		case idleB:
			entry = func(t *thread.Task) {
				for {
					cB.Schedule(t)
				}
			}
		case idTLow:
			entry = func(t *thread.Task) {
				for i := 0; i < 3; i++ {
					fmt.Printf("[core A] T_low iteration %d\n", i)
					if i == 1 {
						fmt.Println("[core A] T_low activating T_high -> expect immediate preemption")
						cA.ActivateTask(t, core.TaskRef{ID: idTHigh, Core: coreA})
					} else {
						cA.Schedule(t)
					}
				}
				fmt.Println("[core A] T_low resumed after T_high terminated, finishing")
				cA.TerminateTask(t)
			}
		case idTHigh:
			entry = func(t *thread.Task) {
				fmt.Println("[core A] T_high running (preempted T_low)")
				cA.TerminateTask(t)
			}
		case idT1:
			entry = func(t *thread.Task) {
				cA.GetResource(t, resR)
				fmt.Println("[core A] T1 holds R (ceiling 3); activating T2 — T2 must stay READY")
				cA.ActivateTask(t, core.TaskRef{ID: idT2, Core: coreA})
				if st, _ := cA.GetTaskState(idT2); st != sched.Ready {
					fmt.Println("unexpected: T2 not READY while T1 holds the ceiling")
				}
				fmt.Println("[core A] T1 releasing R — expect immediate preemption by T2")
				cA.ReleaseResource(t, resR)
				fmt.Println("[core A] T1 resumed after T2 terminated")
				cA.TerminateTask(t)
			}
		case idT2:
			entry = func(t *thread.Task) {
				fmt.Println("[core A] T2 running")
				cA.TerminateTask(t)
			}
		case idTEvent:
			entry = func(t *thread.Task) {
				fmt.Println("[core A] T waiting for event mask 0x2")
				cA.WaitEvent(t, 0x2)
				mask, _ := cA.GetEvent(t, idTEvent)
				fmt.Printf("[core A] T resumed, GetEvent = %#x (want 0x3)\n", mask)
				cA.TerminateTask(t)
			}
		case idRRa, idRRb, idRRc:
			entry = func(t *thread.Task) {
				cA.TerminateTask(t)
			}
		case idTOnB:
			entry = func(t *thread.Task) {
				fmt.Println("[core B] T_on_B running (cross-core activation from A)")
				cB.TerminateTask(t)
			}
		default:
			entry = func(t *thread.Task) { owner.TerminateTask(t) }
		}

		schedTask := sched.NewTask(tc)
		task := thread.NewTask(tc, schedTask, entry)
		owner.AddTask(task)
	}
	cA.AddResource(cl.System.Resources[0])
}
