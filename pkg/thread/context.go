// Package thread implements the uniform thread control block (spec.md
// §4.10/§9, component C6) shared by tasks, ISRs and hooks, and its
// specialization to tasks (component C7, spec.md §3).
//
// spec.md's Context primitive ("init, resume, switch, call_on_stack,
// abort, return, first_resume") is specified against a HAL that performs
// real stack-pointer switches. Go offers no such primitive, and isn't
// meant to: the language already gives every thread of control its own
// goroutine stack. The substitution made here, once, is to model "the
// HAL context switch" as a baton hand-off between two goroutines over
// channels — exactly one of which may be runnable at a time, which is what
// spec.md §5 requires ("at any instant only one thread executes"). Kill's
// forced cleanup lives in this package; the switch-step sequence is not
// implemented here, and the interrupted-thread LIFO lives in pkg/core.
package thread

import "sync"

// Context is the Go-land stand-in for a HAL hardware context: a goroutine
// parked on wake, released by Resume, and handing control back by
// blocking on wake again (or, for the terminal case, by returning from its
// entry function).
type Context struct {
	entry func(c *Context)
	wake  chan struct{}
	done  chan struct{}

	startOnce sync.Once
	yielded   chan struct{} // signalled each time the goroutine parks on wake again
	finished  bool
	abortFn   func() // if set, the next resume runs this instead of resuming mid-entry
}

// NewContext prepares a context around entry, which receives the Context
// itself so it can call Yield to hand control back without terminating.
// The goroutine is not started until the first Resume (spec.md's
// "first_resume").
func NewContext(entry func(c *Context)) *Context {
	return &Context{
		entry:   entry,
		wake:    make(chan struct{}),
		done:    make(chan struct{}),
		yielded: make(chan struct{}, 1),
	}
}

// abortSignal unwinds the backing goroutine's call stack out of whatever
// nesting of Yields the entry function is parked in, so that Abort can
// take effect on the very next Resume regardless of where execution was
// parked (spec.md §4.10 Kill: "insert an abort context that performs
// return cleanup the next time it would be resumed").
type abortSignal struct{ fn func() }

// start launches the backing goroutine exactly once.
func (c *Context) start() {
	c.startOnce.Do(func() {
		go func() {
			<-c.wake
			func() {
				defer func() {
					if r := recover(); r != nil {
						as, ok := r.(abortSignal)
						if !ok {
							panic(r)
						}
						as.fn()
					}
				}()
				if c.abortFn != nil {
					fn := c.abortFn
					c.abortFn = nil
					fn()
					return
				}
				c.entry(c)
			}()
			c.finished = true
			close(c.done)
		}()
	})
}

// Yield parks the calling goroutine (which must be this Context's own
// backing goroutine) until the next Resume. Tasks call this at
// WaitEvent/preemption points; it is the voluntary half of a context
// switch (spec.md §4.10 switch/reset_and_resume). If Abort was called
// while parked, Yield unwinds back to start's recover instead of
// returning to its caller.
func (c *Context) Yield() {
	select {
	case c.yielded <- struct{}{}:
	default:
	}
	<-c.wake
	if c.abortFn != nil {
		fn := c.abortFn
		c.abortFn = nil
		panic(abortSignal{fn})
	}
}

// Resume hands control to c and blocks until c either yields again or
// terminates. Returns true if c is still runnable (yielded), false if it
// has finished (spec.md's "resume").
func (c *Context) Resume() (runnable bool) {
	c.start()
	c.wake <- struct{}{}
	select {
	case <-c.yielded:
		return true
	case <-c.done:
		return false
	}
}

// Finished reports whether the context's entry function has returned.
func (c *Context) Finished() bool {
	return c.finished
}

// Abort arranges for the next Resume to run fn instead of resuming the
// context's normal entry point, then terminate — the "insert an abort
// context that performs return cleanup" behavior spec.md §4.10 Kill
// describes for hooks/ISRs that cannot simply be re-initialized like a
// task.
func (c *Context) Abort(fn func()) {
	c.abortFn = fn
}

