// Package klog is the kernel's ambient logging facade: the structured
// telemetry a production AUTOSAR OS would leave to DET/trace hooks,
// surfaced here as logs instead. It wraps github.com/joeycumines/logiface,
// backed by github.com/joeycumines/izerolog (the logiface binding over
// github.com/rs/zerolog), the way every logiface-* backend package in the
// teacher monorepo wraps the same facade.
package klog

import (
	"io"
	"os"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Event is the concrete event type this facade is instantiated over.
type Event = izerolog.Event

// Logger is a bound logiface.Logger; construct the root with New, derive
// per-core/per-thread children with With.
type Logger struct {
	l *logiface.Logger[*Event]
}

// New constructs the root kernel logger, writing newline-delimited JSON to
// w at the given minimum level. A nil w defaults to os.Stderr, matching
// zerolog's own default writer.
func New(w io.Writer, level logiface.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(w).With().Timestamp().Logger()
	return &Logger{l: logiface.New[*Event](
		izerolog.WithZerolog(zl),
		logiface.WithLevel[*Event](level),
	)}
}

// Discard returns a logger that drops everything — used by components
// under test that don't care about log output, matching the pattern of
// passing io.Discard to zerolog in the teacher's own benchmark harnesses.
func Discard() *Logger {
	return New(io.Discard, logiface.LevelDisabled)
}

// With returns a child logger with (key, value) permanently attached to
// every subsequent log record — used to bind a core ID and/or thread ID
// once per component rather than repeating it at every call site.
func (l *Logger) With(key string, value any) *Logger {
	ctx := l.l.Clone()
	ctx.Any(key, value)
	return &Logger{l: ctx.Logger()}
}

// WithCore binds a core id field.
func (l *Logger) WithCore(coreID int) *Logger {
	return l.With("core", coreID)
}

// WithThread binds a thread id field.
func (l *Logger) WithThread(threadID int) *Logger {
	return l.With("thread", threadID)
}

// Debug logs a scheduling decision or other high-frequency diagnostic.
func (l *Logger) Debug(msg string) {
	if b := l.l.Debug(); b != nil {
		b.Log(msg)
	}
}

// Info logs a boot-sequence milestone or other low-frequency event.
func (l *Logger) Info(msg string) {
	if b := l.l.Info(); b != nil {
		b.Log(msg)
	}
}

// Warn logs a recoverable but notable condition (e.g. XSignal channel
// nearing capacity).
func (l *Logger) Warn(msg string) {
	if b := l.l.Warning(); b != nil {
		b.Log(msg)
	}
}

// Emergency logs immediately before a kernel panic (§7.3): the last thing
// written before the core stops.
func (l *Logger) Emergency(msg string) {
	if b := l.l.Emerg(); b != nil {
		b.Log(msg)
	}
}
