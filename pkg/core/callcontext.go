package core

import (
	"github.com/go-asros/kernel/pkg/status"
	"github.com/go-asros/kernel/pkg/thread"
)

// Permitted call-context masks per API entry point (spec.md §6 "Each API
// specifies which contexts are permitted; violation returns CALLEVEL"),
// mirroring the standard AUTOSAR OS permitted-context table: ops that
// mutate only the caller's own activation/event/lock state (TerminateTask,
// ChainTask, Schedule, ClearEvent, WaitEvent) are TASK-only, since only a
// task can terminate, chain, yield or block; ops that act on another
// thread's state (ActivateTask, SetEvent, GetResource) also admit
// category-2 ISRs, the one interrupt class the spec treats as a first-class
// caller (spec.md §8 S3: "ISR on same core calls SetEvent"); release-only
// ops (ReleaseResource) mirror their acquire counterpart.
const (
	ctxActivateTask    = status.Task | status.Cat2ISR
	ctxTerminateTask   = status.Task
	ctxChainTask       = status.Task
	ctxSchedule        = status.Task
	ctxSetEvent        = status.Task | status.Cat2ISR
	ctxClearEvent      = status.Task
	ctxGetEvent        = status.Task | status.AnyISR | status.AnyHook
	ctxWaitEvent       = status.Task
	ctxGetResource     = status.Task | status.Cat2ISR
	ctxReleaseResource = status.Task | status.Cat2ISR
)

// checkCallContext validates caller's current call context against
// permitted (spec.md §7.1 validation order position 2, "parameter range
// -> call-context -> access rights -> interrupts-enabled -> runtime
// state"). A nil caller originates outside any thread of control
// (boot-time wiring, direct driver calls) and bypasses the check, the
// same convention checkPreempt already uses.
func checkCallContext(caller *thread.Task, permitted status.CallContext) status.Status {
	if caller == nil {
		return status.OK
	}
	if !caller.CurrentCallContext.Allowed(permitted) {
		return status.CallLevel
	}
	return status.OK
}

// checkAccess validates caller's owning application against accessing,
// the target object's accessing_applications bitmask (spec.md §7.1
// validation order position 3). Mirrors original_source's
// Os_AppCheckAccess(currentApplication, permittedApplications) pattern
// used ahead of SetEvent/GetEvent's state checks. A nil caller bypasses
// the check for the same reason checkCallContext does. An all-zero
// accessing mask means the object's config never populated an
// AccessingApplications list (no application partitioning configured, the
// common case for a single-application image) and is treated as
// unrestricted, the same way a real OIL code generator defaults an absent
// AUTHORIZED APPLICATION list to "every application".
func checkAccess(caller *thread.Task, accessing uint32) status.Status {
	if caller == nil || accessing == 0 {
		return status.OK
	}
	if accessing&(1<<uint(caller.CurrentApplication)) == 0 {
		return status.AccessRights1
	}
	return status.OK
}
