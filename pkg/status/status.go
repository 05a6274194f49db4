// Package status defines the numeric return codes and call-context bitmask
// shared by every kernel service in the execution subsystem, along with the
// kernel-panic path used for non-recoverable conditions.
package status

import "fmt"

// Status is the return value of every kernel service call. Zero (OK) means
// success; all other values are recoverable error kinds, never Go errors —
// callers switch on the value, they don't unwrap it.
type Status int

const (
	OK Status = iota
	ID1                          // invalid id in the first id-typed argument
	ID2                          // invalid id in the second id-typed argument
	State                        // current task/object state forbids the call
	State1                       // as State, for a second object
	Access                       // caller's application lacks access rights
	AccessRights1                // as Access, first-argument specific
	CallLevel                    // called from a call context that forbids it
	DisabledInt                  // called with interrupts disabled
	Resource                     // caller still holds a resource/spinlock
	Spinlock                     // spinlock-specific state violation
	NoBarrierParticipant         // caller is not an attendee of the barrier
	NoExtendedTask               // WaitEvent called on a non-extended task
	NoExtendedTaskMask           // as NoExtendedTask, mask-specific variant
	NotAccessible                // target object not accessible from caller core
	NotAccessibleMask            // as NotAccessible, mask-specific variant
	UnimplementedExceptionContext
	EventDisabledByConfig // EVENT configuration option is off
	ProtectionMemory
	ProtectionTiming
	ProtectionStack
	ProtectionException
	Core // invalid or unreachable core id
)

var names = [...]string{
	OK:                            "OK",
	ID1:                           "E_OS_ID",
	ID2:                           "E_OS_ID",
	State:                         "E_OS_STATE",
	State1:                        "E_OS_STATE",
	Access:                        "E_OS_ACCESS",
	AccessRights1:                 "E_OS_ACCESSRIGHTS",
	CallLevel:                     "E_OS_CALLEVEL",
	DisabledInt:                   "E_OS_DISABLEDINT",
	Resource:                      "E_OS_RESOURCE",
	Spinlock:                      "E_OS_SPINLOCK",
	NoBarrierParticipant:          "E_OS_NO_BARRIER_PARTICIPANT",
	NoExtendedTask:                "E_OS_NOEXTENDEDTASK",
	NoExtendedTaskMask:            "E_OS_NOEXTENDEDTASK",
	NotAccessible:                 "E_OS_NOTACCESSIBLE",
	NotAccessibleMask:             "E_OS_NOTACCESSIBLE",
	UnimplementedExceptionContext: "E_OS_UNIMPLEMENTED_EXCEPTIONCONTEXT",
	EventDisabledByConfig:         "E_OS_EVENT_DISABLED_BY_CONFIG",
	ProtectionMemory:              "E_OS_PROTECTION_MEMORY",
	ProtectionTiming:              "E_OS_PROTECTION_TIMING",
	ProtectionStack:               "E_OS_PROTECTION_STACK",
	ProtectionException:           "E_OS_PROTECTION_EXCEPTION",
	Core:                          "E_OS_CORE",
}

// String implements fmt.Stringer, returning the AUTOSAR macro name.
func (s Status) String() string {
	if int(s) >= 0 && int(s) < len(names) && names[s] != "" {
		return names[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}
