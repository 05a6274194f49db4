package barrier

import (
	"runtime"
	"sync/atomic"
)

// token is one of the tri-value handshake tokens spec.md §4.7 names
// (pattern1, pattern2, INITHW, INITHW_DONE, STARTCORE).
type token uint32

const (
	tokenNone token = iota
	tokenPattern1
	tokenPattern2
	tokenInitHW
	tokenInitHWDone
	tokenStartCore
)

// Boot is the master/slave boot-barrier of spec.md §4.7 (component C10),
// one instance per auto-started slave core: the master runs two echo
// handshakes to prove the slave's HAL is alive and spinning before
// publishing INITHW, then hands off with STARTCORE. Non-auto-started
// cores get no Boot instance; nothing in this package starts them.
type Boot struct {
	echoIn      atomic.Uint32
	echoOut     atomic.Uint32
	waitingSign atomic.Uint32
}

// NewBoot constructs a boot-barrier in its initial, pre-handshake state.
func NewBoot() *Boot {
	return &Boot{}
}

// spinUntil busy-waits (yielding between polls) until word reads want —
// the boot-barrier's NOP-punctuated spin (spec.md §4.7).
func spinUntil(word *atomic.Uint32, want token) {
	for token(word.Load()) != want {
		runtime.Gosched()
	}
}

// MasterHandshake runs the two echo handshakes and the INITHW exchange,
// blocking until the slave has acknowledged with INITHW_DONE (spec.md
// §4.7: "Master... runs two echo handshakes... then writes waiting_sign =
// INITHW and spins until slave publishes INITHW_DONE"). Call once per
// auto-started slave, typically from a dedicated goroutine per slave so
// the handshakes proceed concurrently across slaves.
func (b *Boot) MasterHandshake() {
	b.echoIn.Store(uint32(tokenPattern1))
	spinUntil(&b.echoOut, tokenPattern1)

	b.echoIn.Store(uint32(tokenPattern2))
	spinUntil(&b.echoOut, tokenPattern2)

	b.waitingSign.Store(uint32(tokenInitHW))
	spinUntil(&b.echoOut, tokenInitHWDone)
}

// MasterStartCore publishes STARTCORE, releasing a slave parked in
// SlaveAwaitStartCore (spec.md §4.7 "after the master publishes
// STARTCORE").
func (b *Boot) MasterStartCore() {
	b.waitingSign.Store(uint32(tokenStartCore))
}

// SlaveHandshake mirrors echo_in to echo_out until waiting_sign becomes
// INITHW, then publishes INITHW_DONE (spec.md §4.7 "Slave mirrors
// echo_in to echo_out until waiting_sign becomes INITHW; then publishes
// INITHW_DONE").
func (b *Boot) SlaveHandshake() {
	for token(b.waitingSign.Load()) != tokenInitHW {
		b.echoOut.Store(b.echoIn.Load())
		runtime.Gosched()
	}
	b.echoOut.Store(uint32(tokenInitHWDone))
}

// SlaveAwaitStartCore blocks until the master publishes STARTCORE
// (spec.md §4.7 "waits for STARTCORE").
func (b *Boot) SlaveAwaitStartCore() {
	spinUntil(&b.waitingSign, tokenStartCore)
}
