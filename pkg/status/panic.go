package status

import "fmt"

// PanicError is the value recovered from a kernel panic (§7.3): an
// assertion failure or impossible-state condition, non-returning by
// design. It carries the core that panicked so a recover()-at-boundary
// handler can decide whether to keep other cores running.
type PanicError struct {
	CoreID int
	Reason string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("kernel panic on core %d: %s", e.CoreID, e.Reason)
}

// Panic raises a kernel panic for coreID. It never returns. Callers should
// log at emergency severity before calling this, since panic unwinds
// before any deferred logging in the caller's own frame would otherwise
// have a chance to run synchronously.
func Panic(coreID int, format string, args ...any) {
	panic(&PanicError{CoreID: coreID, Reason: fmt.Sprintf(format, args...)})
}
