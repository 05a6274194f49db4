package sched

import (
	"testing"

	"github.com/go-asros/kernel/pkg/config"
)

func mkTask(id config.TaskID, home, running config.Priority, rrCount int) *Task {
	return NewTask(config.TaskConfig{
		ID:              id,
		HomePriority:    home,
		RunningPriority: running,
		MaxActivations:  4,
		RoundRobinCount: rrCount,
	})
}

func newTestScheduler(idle *Task, extra ...int) *Scheduler {
	const n = 32
	caps := make([]int, n)
	for i := range caps {
		caps[i] = 4
	}
	return New(n, caps, idle)
}

func TestScheduler_IdleAlwaysReady(t *testing.T) {
	idle := mkTask(99, 31, 31, 0)
	s := newTestScheduler(idle)
	cur, prio := s.Current()
	if cur != idle || prio != 31 {
		t.Fatalf("expected idle current at 31, got %v/%d", cur.ID, prio)
	}
}

// TestScheduler_Preemption mirrors scenario S1: a low priority task is
// running; a higher priority task activates and immediately preempts.
func TestScheduler_Preemption(t *testing.T) {
	idle := mkTask(0, 31, 31, 0)
	s := newTestScheduler(idle)

	low := mkTask(1, 10, 10, 0)
	s.Insert(low)
	s.InternalSchedule()
	if cur, _ := s.Current(); cur != low {
		t.Fatalf("expected low-priority task to be current, got %v", cur.ID)
	}

	high := mkTask(2, 5, 5, 0)
	s.Insert(high)
	if nxt, _ := s.Next(); nxt != high {
		t.Fatalf("expected high priority task to become next, got %v", nxt.ID)
	}
	if !s.TaskSwitchNeeded() {
		t.Fatal("expected a task switch to be needed")
	}

	// preempt: low stays queued (not removed — it stays READY to resume via
	// normal dispatch, since it never called RemoveCurrent/terminate).
	s.InternalSchedule()
	if cur, _ := s.Current(); cur != high {
		t.Fatalf("expected high to be current after InternalSchedule, got %v", cur.ID)
	}

	// high terminates.
	s.RemoveCurrent()
	if s.TaskSwitchNeeded() {
		if nxt, _ := s.Next(); nxt != low {
			t.Fatalf("expected low to resume, got %v", nxt.ID)
		}
	}
	s.InternalSchedule()
	if cur, _ := s.Current(); cur != low {
		t.Fatalf("expected low task to resume exactly where it left off, got %v", cur.ID)
	}
}

// TestScheduler_Ceiling mirrors scenario S2: T1 raises its priority to a
// resource's ceiling, preventing T2 (ready at a priority between ceiling
// and T1's home) from being dispatched until T1 releases.
func TestScheduler_Ceiling(t *testing.T) {
	idle := mkTask(0, 31, 31, 0)
	s := newTestScheduler(idle)

	t1 := mkTask(1, 10, 10, 0)
	s.Insert(t1)
	s.InternalSchedule()

	const ceiling = config.Priority(4)
	s.IncreasePrio(ceiling)

	t2 := mkTask(2, 5, 5, 0)
	s.Insert(t2)
	if s.TaskSwitchNeeded() {
		t.Fatal("T2 (prio 5) must not preempt T1 while T1 holds the ceiling-4 resource")
	}

	s.DecreasePrio(t1.HomePriority)
	if !s.TaskSwitchNeeded() {
		t.Fatal("expected T2 to preempt once T1 releases the resource")
	}
	if nxt, _ := s.Next(); nxt != t2 {
		t.Fatalf("expected T2 next, got %v", nxt.ID)
	}
}

// TestScheduler_RoundRobin mirrors scenario S6: three same-priority tasks
// round-robin with count 3; after 3 events the head rotates to the tail,
// and after 9 total events the original order is restored.
func TestScheduler_RoundRobin(t *testing.T) {
	idle := mkTask(0, 31, 31, 0)
	s := newTestScheduler(idle)

	a := mkTask(1, 10, 10, 3)
	b := mkTask(2, 10, 10, 3)
	c := mkTask(3, 10, 10, 3)
	s.Insert(a)
	s.Insert(b)
	s.Insert(c)
	s.InternalSchedule() // a becomes current

	if got := s.QueueSnapshot(10); !idEquals(got, 1, 2, 3) {
		t.Fatalf("initial order got %v, want [1 2 3]", got)
	}

	wantAfterRound := [][]config.TaskID{
		{2, 3, 1},
		{3, 1, 2},
		{1, 2, 3},
	}
	for round := 0; round < 3; round++ {
		for i := 0; i < 2; i++ {
			s.RoundRobinEvent()
		}
		if got := s.QueueSnapshot(10); got[0] == wantAfterRound[round][0] {
			t.Fatalf("round %d: rotation happened too early, got %v", round, got)
		}
		s.RoundRobinEvent() // 3rd event: current task's budget expires, rotates to tail
		if got := s.QueueSnapshot(10); !idEquals(got, wantAfterRound[round]...) {
			t.Fatalf("round %d: got %v, want %v", round, got, wantAfterRound[round])
		}
		// dispatcher picks up the new head as current for the next round.
		s.InternalSchedule()
	}

	// idle queue (priority 31) must be untouched throughout.
	if got := s.QueueSnapshot(31); !idEquals(got, 0) {
		t.Fatalf("idle queue got %v, want [0]", got)
	}
}

func idEquals(got []config.TaskID, want ...config.TaskID) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
