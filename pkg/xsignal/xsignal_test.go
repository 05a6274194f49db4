package xsignal

import (
	"context"
	"testing"
	"time"

	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/status"
)

func TestHub_CallSync(t *testing.T) {
	cores := []config.CoreID{0, 1}
	h := NewHub(cores, 8)
	h.RegisterHandler(1, FuncActivateTask, func(params [MaxParams]Param) ([MaxParams]Param, status.Status) {
		var out [MaxParams]Param
		out[0] = Param{Kind: ParamTaskID, TaskID: params[0].TaskID}
		return out, status.OK
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Serve(ctx, 1)

	var params [MaxParams]Param
	params[0] = Param{Kind: ParamTaskID, TaskID: 42}
	out, st := h.CallSync(0, 1, FuncActivateTask, params)
	if st != status.OK {
		t.Fatalf("got status %v, want OK", st)
	}
	if out[0].TaskID != 42 {
		t.Fatalf("got task id %d, want 42", out[0].TaskID)
	}
}

func TestHub_CallAsyncFIFO(t *testing.T) {
	cores := []config.CoreID{0, 1}
	h := NewHub(cores, 8)

	var received []uint32
	done := make(chan struct{})
	h.RegisterHandler(1, FuncSetEvent, func(params [MaxParams]Param) ([MaxParams]Param, status.Status) {
		received = append(received, params[0].Word)
		if len(received) == 3 {
			close(done)
		}
		return [MaxParams]Param{}, status.OK
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Serve(ctx, 1)

	for i := uint32(1); i <= 3; i++ {
		var params [MaxParams]Param
		params[0] = Param{Kind: ParamWord, Word: i}
		h.CallAsync(0, 1, FuncSetEvent, params)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async deliveries")
	}

	want := []uint32{1, 2, 3}
	if len(received) != len(want) {
		t.Fatalf("got %v, want %v", received, want)
	}
	for i := range want {
		if received[i] != want[i] {
			t.Fatalf("got %v, want %v", received, want)
		}
	}
}

func TestHub_UnregisteredFunctionReturnsID1(t *testing.T) {
	cores := []config.CoreID{0, 1}
	h := NewHub(cores, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Serve(ctx, 1)

	out, st := h.CallSync(0, 1, FuncTerminateTask, [MaxParams]Param{})
	if st != status.ID1 {
		t.Fatalf("got status %v, want ID1", st)
	}
	if out != ([MaxParams]Param{}) {
		t.Fatalf("expected zero-value output, got %v", out)
	}
}

func TestIsCoreLocal(t *testing.T) {
	if !IsCoreLocal(0, 0) {
		t.Fatal("expected same-core call to be local")
	}
	if IsCoreLocal(0, 1) {
		t.Fatal("expected cross-core call to be non-local")
	}
}
