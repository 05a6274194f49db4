// Package sched implements the per-core ready structure (spec.md §4.3,
// component C3): a priority-indexed array of deque.Deque summarized by a
// bitset.Array, producing a (current, next) task pair on every decision
// point.
package sched

import (
	"fmt"

	"github.com/go-asros/kernel/pkg/bitset"
	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/deque"
)

// Scheduler is one core's ready structure. It is not safe for concurrent
// use from more than one goroutine: per spec.md §5, scheduler mutation is
// serialized under the owning core's interrupt-suspend, never touched by
// another core directly (remote mutation is forbidden, routed through
// pkg/xsignal instead).
type Scheduler struct {
	queues  []*deque.Deque[*Task]
	summary bitset.Array[uint64]

	idlePriority config.Priority

	currentTask     *Task
	currentPriority config.Priority
	nextTask        *Task
	nextPriority    config.Priority
}

// New builds a Scheduler with numPriorities queues, one per priority level
// 0..numPriorities-1, each with the given capacity (indexed the same way),
// and immediately inserts idle so the summary is never empty (spec.md §4.2:
// "configuration guarantees the idle task's bit is always set").
func New(numPriorities int, capacities []int, idle *Task) *Scheduler {
	if numPriorities < 1 || numPriorities > 64 {
		panic("sched: numPriorities must be in [1, 64]")
	}
	if len(capacities) != numPriorities {
		panic("sched: capacities must have one entry per priority")
	}
	s := &Scheduler{
		queues:       make([]*deque.Deque[*Task], numPriorities),
		idlePriority: idle.HomePriority,
	}
	for p := 0; p < numPriorities; p++ {
		s.queues[p] = deque.New[*Task](capacities[p])
	}
	s.Insert(idle)
	s.currentTask = idle
	s.currentPriority = idle.HomePriority
	return s
}

func (s *Scheduler) recomputeNext() {
	idx := s.summary.CountLeadingZero()
	if idx < 0 {
		panic(fmt.Sprintf("sched: summary empty, idle task (priority %d) must always be ready", s.idlePriority))
	}
	s.nextPriority = config.Priority(idx)
	task, ok := s.queues[idx].Peek()
	if !ok {
		panic("sched: summary bit set but queue empty (invariant violated)")
	}
	s.nextTask = task
}

// Current returns the task the core is currently running, and its
// dispatch priority (which may be elevated above its home priority).
func (s *Scheduler) Current() (*Task, config.Priority) {
	return s.currentTask, s.currentPriority
}

// Next returns the task that would be dispatched next, and its priority.
func (s *Scheduler) Next() (*Task, config.Priority) {
	return s.nextTask, s.nextPriority
}

// TaskSwitchNeeded reports whether the current and next task differ.
func (s *Scheduler) TaskSwitchNeeded() bool {
	return s.currentTask != s.nextTask
}

// Insert appends task at its home priority (spec.md §4.3): used on
// activation. Fairness: insertion is at the tail.
func (s *Scheduler) Insert(task *Task) {
	task.State = Ready
	task.CurrentPriority = task.HomePriority
	task.RoundRobinRemaining = task.RoundRobinReload
	p := task.HomePriority
	s.queues[p].Enqueue(task)
	s.summary.Set(int(p))
	s.recomputeNext()
}

// IncreasePrio raises current's priority immediately (spec.md §4.3):
// new must be strictly higher (numerically lower) than the scheduler's
// current dispatch priority. The task is prepended into the new priority's
// queue; its earlier queue entry (home, or a lower ceiling) is left in
// place, so the task occupies two queues until RemoveCurrent or
// DecreasePrio undoes it (spec.md §3 lock-list/ceiling note).
func (s *Scheduler) IncreasePrio(newPriority config.Priority) {
	if !newPriority.Less(s.currentPriority) {
		panic("sched: IncreasePrio requires strictly higher priority than current")
	}
	cur := s.currentTask
	cur.CurrentPriority = newPriority
	s.queues[newPriority].Prepend(cur)
	s.summary.Set(int(newPriority))
	s.currentPriority = newPriority
	s.recomputeNext()
}

// DecreasePrio lowers current's priority (spec.md §4.3): symmetrical to
// IncreasePrio, dequeues the head of the current (elevated) queue,
// clearing its summary bit if that empties the queue, then records
// newPriority as the live dispatch priority.
func (s *Scheduler) DecreasePrio(newPriority config.Priority) {
	cur := s.currentTask
	s.queues[s.currentPriority].DeleteTop()
	if s.queues[s.currentPriority].IsEmpty() {
		s.summary.Clear(int(s.currentPriority))
	}
	cur.CurrentPriority = newPriority
	s.currentPriority = newPriority
	s.recomputeNext()
}

// RemoveCurrent dequeues the current task entirely (spec.md §4.3): used on
// WaitEvent/Terminate. If the task's live dispatch priority differs from
// its home priority (a ceiling was in effect), both queue entries are
// removed. The task's priority is reset to home.
func (s *Scheduler) RemoveCurrent() {
	cur := s.currentTask
	s.queues[s.currentPriority].DeleteTop()
	if s.queues[s.currentPriority].IsEmpty() {
		s.summary.Clear(int(s.currentPriority))
	}
	if s.currentPriority != cur.HomePriority {
		if s.queues[cur.HomePriority].Delete(cur) && s.queues[cur.HomePriority].IsEmpty() {
			s.summary.Clear(int(cur.HomePriority))
		}
	}
	cur.CurrentPriority = cur.HomePriority
	s.recomputeNext()
}

// RemoveTaskAll deletes every pending entry for task: all multi-activation
// entries at home priority, plus a single entry at its current priority if
// different (spec.md §4.3) — used by forced kill/termination cleanup.
func (s *Scheduler) RemoveTaskAll(task *Task) {
	for s.queues[task.HomePriority].Delete(task) {
	}
	if s.queues[task.HomePriority].IsEmpty() {
		s.summary.Clear(int(task.HomePriority))
	}
	if task.CurrentPriority != task.HomePriority {
		s.queues[task.CurrentPriority].Delete(task)
		if s.queues[task.CurrentPriority].IsEmpty() {
			s.summary.Clear(int(task.CurrentPriority))
		}
	}
	task.CurrentPriority = task.HomePriority
	task.State = Suspended
	task.ActivationCount = 0
	s.recomputeNext()
}

// InternalSchedule applies immediate-priority-ceiling-on-dispatch (spec.md
// §4.3): if next's static RunningPriority outranks its live
// CurrentPriority, it is prepended at RunningPriority before becoming
// current. Always promotes next to current.
func (s *Scheduler) InternalSchedule() {
	next := s.nextTask
	if next.RunningPriority.Less(next.CurrentPriority) {
		next.CurrentPriority = next.RunningPriority
		s.queues[next.RunningPriority].Prepend(next)
		s.summary.Set(int(next.RunningPriority))
		s.currentPriority = next.RunningPriority
	} else {
		s.currentPriority = next.CurrentPriority
	}
	s.currentTask = next
	s.recomputeNext()
}

// ReleaseRunningPrio drops current from its RunningPriority ceiling back
// to home (spec.md §4.3), runs the round-robin check, recomputes next, and
// reports whether a task switch is now needed.
func (s *Scheduler) ReleaseRunningPrio() bool {
	cur := s.currentTask
	if s.currentPriority != cur.RunningPriority {
		panic("sched: ReleaseRunningPrio called while not at running priority")
	}
	s.DecreasePrio(cur.HomePriority)
	s.RoundRobinEvent()
	return s.TaskSwitchNeeded()
}

// RoundRobinEvent decrements current's round-robin budget if enabled;
// when it hits zero while current sits at its home priority, the queue is
// rotated (requeue) and the budget reloaded (spec.md §4.3, Testable
// Property / scenario S6).
func (s *Scheduler) RoundRobinEvent() {
	cur := s.currentTask
	if cur.RoundRobinReload <= 0 {
		return
	}
	cur.RoundRobinRemaining--
	if cur.RoundRobinRemaining <= 0 && s.currentPriority == cur.HomePriority {
		s.queues[cur.HomePriority].Requeue()
		cur.RoundRobinRemaining = cur.RoundRobinReload
		s.recomputeNext()
	}
}

// QueueSnapshot returns the task IDs in priority p's queue, head to tail,
// for testing/inspection.
func (s *Scheduler) QueueSnapshot(p config.Priority) []config.TaskID {
	tasks := s.queues[p].Slice()
	ids := make([]config.TaskID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
