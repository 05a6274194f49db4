// Package xsignal implements the cross-core signaling channel of spec.md
// §4.9 (component C12): kernel service calls whose target object lives on
// another core are marshalled into a fixed-arity parameter record and
// dispatched through a per-core handler table, synchronously or
// asynchronously, grounded on the same request/dispatch-table shape
// in-process gRPC proxies (inprocgrpc) use to route a call to a local
// handler without a real network hop.
package xsignal

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/event"
	"github.com/go-asros/kernel/pkg/status"
)

// MaxParams bounds the positional argument count of any one call (spec.md
// §4.9 "packs <= K positional arguments").
const MaxParams = 4

// ParamKind tags which field of Param is meaningful — Go has no union
// type, so Param is a tagged record instead (spec.md §4.9 "tagged Param
// union").
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamTaskID
	ParamCoreID
	ParamApplicationID
	ParamEventMask
	ParamStatus
	ParamWord
)

// Param is one positional argument or result slot.
type Param struct {
	Kind          ParamKind
	TaskID        config.TaskID
	CoreID        config.CoreID
	ApplicationID config.ApplicationID
	Mask          event.Mask
	Status        status.Status
	Word          uint32
}

// FunctionIndex selects the receiver-side handler (spec.md §4.9 "Dispatch
// table on receiver: index function_index -> handler").
type FunctionIndex int

const (
	FuncActivateTask FunctionIndex = iota
	FuncTerminateTask
	FuncChainTask
	FuncSetEvent
	FuncGetEvent
	FuncGetResource
	FuncReleaseResource
	FuncShutdownAllCores
)

// Handler runs a dispatched call's local implementation — "the same local
// implementation used for in-core calls" (spec.md §4.9).
type Handler func(params [MaxParams]Param) (out [MaxParams]Param, st status.Status)

// Request is one marshalled call, in flight on a (sender, receiver)
// channel. reply is nil for asynchronous calls.
type Request struct {
	Function FunctionIndex
	Params   [MaxParams]Param
	reply    chan Reply
}

// Reply carries a synchronous call's result back to the sender.
type Reply struct {
	Out    [MaxParams]Param
	Status status.Status
}

// Hub owns one lock-free FIFO channel per (sender core, receiver core)
// pair (spec.md §4.9 "per (sender, receiver) channel, FIFO") and each
// receiver core's dispatch table.
type Hub struct {
	cores    []config.CoreID
	channels map[config.CoreID]map[config.CoreID]chan Request // [receiver][sender]
	handlers map[config.CoreID]map[FunctionIndex]Handler
}

// NewHub builds a Hub wired for exactly the given core set, one channel
// per ordered pair of distinct cores.
func NewHub(cores []config.CoreID, queueDepth int) *Hub {
	h := &Hub{
		cores:    cores,
		channels: make(map[config.CoreID]map[config.CoreID]chan Request, len(cores)),
		handlers: make(map[config.CoreID]map[FunctionIndex]Handler, len(cores)),
	}
	for _, r := range cores {
		h.channels[r] = make(map[config.CoreID]chan Request, len(cores)-1)
		h.handlers[r] = make(map[FunctionIndex]Handler)
		for _, s := range cores {
			if s == r {
				continue
			}
			h.channels[r][s] = make(chan Request, queueDepth)
		}
	}
	return h
}

// RegisterHandler installs the local implementation function_index
// dispatches to on the given receiver core.
func (h *Hub) RegisterHandler(receiver config.CoreID, fn FunctionIndex, handler Handler) {
	h.handlers[receiver][fn] = handler
}

// IsCoreLocal reports whether sender and receiver are the same core — the
// policy spec.md §4.9 requires callers to check so that "a service whose
// target is on the local core MUST NOT be marshalled".
func IsCoreLocal(sender, receiver config.CoreID) bool {
	return sender == receiver
}

// CallSync marshals fn/params onto the (sender, receiver) channel and
// blocks until the receiver's Serve loop replies (spec.md §4.9
// Synchronous: "sender blocks... when set, reads out_params... returns
// status to caller"). Never call with sender == receiver.
func (h *Hub) CallSync(sender, receiver config.CoreID, fn FunctionIndex, params [MaxParams]Param) ([MaxParams]Param, status.Status) {
	ch, ok := h.channels[receiver][sender]
	if !ok {
		panic(fmt.Sprintf("xsignal: no channel from core %d to core %d", sender, receiver))
	}
	reply := make(chan Reply, 1)
	ch <- Request{Function: fn, Params: params, reply: reply}
	r := <-reply
	return r.Out, r.Status
}

// CallAsync enqueues fn/params and returns immediately (spec.md §4.9
// Asynchronous: "sender enqueues and returns immediately; delivery is
// guaranteed at-most-once"). Used for fire-and-forget activations,
// SetEvent, and ShutdownAllCores.
func (h *Hub) CallAsync(sender, receiver config.CoreID, fn FunctionIndex, params [MaxParams]Param) {
	ch, ok := h.channels[receiver][sender]
	if !ok {
		panic(fmt.Sprintf("xsignal: no channel from core %d to core %d", sender, receiver))
	}
	ch <- Request{Function: fn, Params: params}
}

// Serve runs receiver's dispatch loop until ctx is cancelled, fanning in
// every inbound (sender, receiver) channel. Across distinct sender
// channels no ordering is implied (spec.md §4.9 "Across channels no
// order"); within one, requests are read and dispatched in send order
// because each is a single Go channel.
func (h *Hub) Serve(ctx context.Context, receiver config.CoreID) error {
	inbound := h.channels[receiver]
	cases := make([]reflect.SelectCase, 0, len(inbound)+1)
	senders := make([]config.CoreID, 0, len(inbound))
	for sender, ch := range inbound {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch)})
		senders = append(senders, sender)
	}
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})
	doneIdx := len(cases) - 1

	for {
		chosen, value, ok := reflect.Select(cases)
		if chosen == doneIdx {
			return ctx.Err()
		}
		if !ok {
			continue
		}
		req := value.Interface().(Request)
		handler, found := h.handlers[receiver][req.Function]
		var out [MaxParams]Param
		st := status.ID1
		if found {
			out, st = handler(req.Params)
		}
		if req.reply != nil {
			req.reply <- Reply{Out: out, Status: st}
		}
	}
}
