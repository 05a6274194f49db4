package sched

import "github.com/go-asros/kernel/pkg/config"

// TaskState is the task life-cycle state spec.md §3 defines.
type TaskState int

const (
	Suspended TaskState = iota
	Ready
	Running
	Waiting
)

func (s TaskState) String() string {
	switch s {
	case Suspended:
		return "SUSPENDED"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Waiting:
		return "WAITING"
	default:
		return "UNKNOWN"
	}
}

// Task is the scheduling-relevant view of a task (spec.md §3 "Task"),
// deliberately minimal: pkg/thread.Task holds a pointer to this (its Sched
// field) next to the thread-control-block fields (context, locks, events),
// without the
// scheduler needing to know about them. Identity for deque membership is
// pointer identity, so callers must always pass the same *Task value.
type Task struct {
	ID             config.TaskID
	HomePriority   config.Priority
	RunningPriority config.Priority // ceiling; <= HomePriority numerically
	MaxActivations int

	// mutable scheduling state
	CurrentPriority     config.Priority
	State                TaskState
	ActivationCount      int
	RoundRobinReload     int
	RoundRobinRemaining  int
}

// NewTask builds the scheduling view of a task from its static config.
func NewTask(tc config.TaskConfig) *Task {
	return &Task{
		ID:                  tc.ID,
		HomePriority:        tc.HomePriority,
		RunningPriority:     tc.RunningPriority,
		MaxActivations:      tc.MaxActivations,
		CurrentPriority:     tc.HomePriority,
		State:               Suspended,
		RoundRobinReload:    tc.RoundRobinCount,
		RoundRobinRemaining: tc.RoundRobinCount,
	}
}
