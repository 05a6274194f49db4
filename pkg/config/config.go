// Package config holds the static configuration enumeration spec.md §6/§9
// describes: everything a code generator would normally bake into
// compile-time tables for a real AUTOSAR OS image. All of it is assumed
// present and validated before boot (spec.md §1): Validate is the single
// place that assumption is checked.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// TaskID, CoreID, ResourceID, SpinlockID, ApplicationID, BarrierID index
// into the corresponding static tables. Zero-valued where "no such id" is
// a legal sentinel (see NoResource).
type (
	TaskID        int
	CoreID        int
	ResourceID    int
	SpinlockID    int
	ApplicationID int
	BarrierID     int
)

// NoResource is the sentinel ResourceID meaning "lock list entry unused"
// (spec.md §3 "a sentinel distinguishes 'not linked'").
const NoResource ResourceID = -1

// Priority is the scheduler priority type. Lower numeric value is higher
// priority (original_source/Os_Scheduler.h Os_SchedulerPriorityIsHigher),
// confirming spec.md §3's "lower numeric = higher".
type Priority int

// Less reports whether p is strictly higher priority than other.
func (p Priority) Less(other Priority) bool { return p < other }

// LessOrEqual reports whether p is at least as high priority as other.
func (p Priority) LessOrEqual(other Priority) bool { return p <= other }

// LockKind distinguishes the three lock list entry kinds spec.md §4.5
// names: a standard priority-ceiling resource, an interrupt-disabling
// resource (ceiling disables all interrupts for its duration, per
// original_source/Os_Lock.h), and a user spinlock.
type LockKind int

const (
	StandardResource LockKind = iota
	InterruptResource
	SpinlockKind
)

// TaskConfig is one entry of the static task table.
type TaskConfig struct {
	ID                     TaskID
	HomePriority           Priority
	RunningPriority        Priority // numerically <= HomePriority (at least as high); ceiling used on dispatch
	MaxActivations         int
	Extended               bool // may call WaitEvent
	AccessingApplications  uint32
	OwnerApplication       ApplicationID
	RoundRobinCount        int // 0 disables round-robin for this task
	Core                   CoreID
}

// ResourceConfig is one entry of the static resource table.
type ResourceConfig struct {
	ID                    ResourceID
	Kind                  LockKind
	Ceiling               Priority
	AccessingApplications uint32 // original_source Os_LockGetAccessingApplications
	Core                  CoreID // owning core; Get/Release act only on resources registered with the calling core, nothing is forwarded over XSignal
}

// SpinlockConfig is one entry of the static spinlock table.
type SpinlockConfig struct {
	ID                    SpinlockID
	AccessingApplications uint32
}

// BarrierConfig describes a user (application) counter-barrier and its
// attendee core set (spec.md §4.6, §6 BarrierSynchronize).
type BarrierConfig struct {
	ID        BarrierID
	Attendees []CoreID
}

// CoreConfig describes one simulated hardware core.
type CoreConfig struct {
	ID                CoreID
	IsASRCore         bool
	AutoStart         bool
	MasterStartAllowed bool
	IsHWInitCore      bool
	NumPriorities     int // size of the per-core priority table, incl. idle
	IdlePriority      Priority
}

// Options are the build-time feature toggles of spec.md §9.
type Options struct {
	Event            bool
	XSignal          bool
	XSignalAsync     bool
	RoundRobin       bool
	PreStartTask     bool
	InterruptOnly    bool
	FPUContext       bool
	FPUForAll        bool
	PreTaskHook      bool
	PostTaskHook     bool
	ErrorHook        bool
	ProtectionHook   bool
	StackMonitoring  bool
	KillingSupported bool
}

// System is the full static configuration of one kernel image.
type System struct {
	Cores     []CoreConfig
	Tasks     []TaskConfig
	Resources []ResourceConfig
	Spinlocks []SpinlockConfig
	Barriers  []BarrierConfig
	Options   Options
}

// CoreByID returns the CoreConfig for id, or false if id is not configured.
func (s *System) CoreByID(id CoreID) (CoreConfig, bool) {
	for _, c := range s.Cores {
		if c.ID == id {
			return c, true
		}
	}
	return CoreConfig{}, false
}

// TaskByID returns the TaskConfig for id, or false if id is not configured.
func (s *System) TaskByID(id TaskID) (TaskConfig, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return TaskConfig{}, false
}

// ResourceByID returns the ResourceConfig for id, or false if not configured.
func (s *System) ResourceByID(id ResourceID) (ResourceConfig, bool) {
	for _, r := range s.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return ResourceConfig{}, false
}

// Validate checks the static invariants spec.md assumes are already true
// by the time the kernel boots: at least one core, unique core ids,
// exactly one HW-init core, idle priority in each core's lowest slot,
// running priority at least as high as home priority, MaxActivations >= 1,
// round-robin counts only with the ROUND_ROBIN option, and known owning
// cores for tasks and resources. Resource ceilings and deque capacities
// are not checked.
func (s *System) Validate() error {
	if len(s.Cores) == 0 {
		return fmt.Errorf("config: at least one core required")
	}
	hwInit := 0
	seenCore := map[CoreID]bool{}
	for _, c := range s.Cores {
		if seenCore[c.ID] {
			return fmt.Errorf("config: duplicate core id %d", c.ID)
		}
		seenCore[c.ID] = true
		if c.IsHWInitCore {
			hwInit++
		}
		if c.NumPriorities < 1 {
			return fmt.Errorf("config: core %d: NumPriorities must be >= 1", c.ID)
		}
		if int(c.IdlePriority) != c.NumPriorities-1 {
			return fmt.Errorf("config: core %d: idle task must occupy the lowest priority slot", c.ID)
		}
	}
	if hwInit != 1 {
		return fmt.Errorf("config: exactly one core must be the HW-init core, got %d", hwInit)
	}
	for _, t := range s.Tasks {
		if t.RunningPriority > t.HomePriority {
			return fmt.Errorf("config: task %d: running priority must be <= home priority (lower is higher)", t.ID)
		}
		if t.MaxActivations < 1 {
			return fmt.Errorf("config: task %d: MaxActivations must be >= 1", t.ID)
		}
		if !s.Options.RoundRobin && t.RoundRobinCount != 0 {
			return fmt.Errorf("config: task %d: round-robin count set but ROUND_ROBIN option is off", t.ID)
		}
		if _, ok := s.CoreByID(t.Core); !ok {
			return fmt.Errorf("config: task %d: unknown core %d", t.ID, t.Core)
		}
	}
	for _, r := range s.Resources {
		if _, ok := s.CoreByID(r.Core); !ok {
			return fmt.Errorf("config: resource %d: unknown core %d", r.ID, r.Core)
		}
	}
	return nil
}

// Load parses a TOML-encoded System from the given bytes, for hosted or
// simulated builds iterating on configuration without a Go recompile.
func Load(data []byte) (*System, error) {
	var s System
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
