package status

// CallContext is a bitset identifying which kind of thread of control is
// making a kernel service call. Validation against an API's permitted-set
// is a single mask-and-test (spec.md §6 "Call contexts (mask-typed)").
type CallContext uint16

const (
	Task CallContext = 1 << iota
	PreStartTask
	Cat2ISR
	TPISR
	StartupHook
	ShutdownHook
	ErrorHook
	ProtectionHook
	InitHook
	PostTaskHook
	Callback
)

// AnyISR is the mask matching either category 2 or timing-protection ISR.
const AnyISR = Cat2ISR | TPISR

// AnyHook is the mask matching any hook call context.
const AnyHook = StartupHook | ShutdownHook | ErrorHook | ProtectionHook | InitHook | PostTaskHook

// Allowed reports whether cc is one of the contexts in permitted.
func (cc CallContext) Allowed(permitted CallContext) bool {
	return cc&permitted != 0
}

var ccNames = map[CallContext]string{
	Task:           "TASK",
	PreStartTask:   "PRESTARTTASK",
	Cat2ISR:        "CAT2_ISR",
	TPISR:          "TP_ISR",
	StartupHook:    "STARTUP_HOOK",
	ShutdownHook:   "SHUTDOWN_HOOK",
	ErrorHook:      "ERROR_HOOK",
	ProtectionHook: "PROTECTION_HOOK",
	InitHook:       "INIT_HOOK",
	PostTaskHook:   "POSTTASK_HOOK",
	Callback:       "CALLBACK",
}

// String renders the single-bit name, or a generic label for a combined mask.
func (cc CallContext) String() string {
	if name, ok := ccNames[cc]; ok {
		return name
	}
	return "CallContext(mixed)"
}
