package thread

import (
	"testing"

	"github.com/go-asros/kernel/pkg/config"
	"github.com/go-asros/kernel/pkg/lock"
	"github.com/go-asros/kernel/pkg/sched"
)

func TestThread_ServiceCallLIFO(t *testing.T) {
	var th Thread
	var order []int
	th.PushServiceCall(func() { order = append(order, 1) })
	th.PushServiceCall(func() { order = append(order, 2) })
	th.PushServiceCall(func() { order = append(order, 3) })

	th.PopServiceCall()
	if len(order) != 1 || order[0] != 3 {
		t.Fatalf("got %v, want [3]", order)
	}

	th.ReleaseAllServiceCalls()
	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestThread_PushServiceCallPanicsPastMaxDepth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic past MaxServiceCallDepth")
		}
	}()
	var th Thread
	for i := 0; i <= MaxServiceCallDepth; i++ {
		th.PushServiceCall(func() {})
	}
}

func TestTask_Kill(t *testing.T) {
	cfg := config.TaskConfig{
		ID:           1,
		HomePriority: 5,
		Extended:     true,
		Core:         0,
	}
	st := sched.NewTask(cfg)
	tk := NewTask(cfg, st, func(t *Task) {})

	tk.Locks.Push(lock.Entry{ResourceID: 1, Kind: config.StandardResource})
	tk.Locks.Push(lock.Entry{ResourceID: 2, Kind: config.StandardResource})
	tk.Events.SetWaitMask(0x1)
	tk.Events.OrSet(0x1)
	tk.MPAccessRightsInitial = 0xF
	tk.MPAccessRightsCurrent = 0xFF

	var released []config.ResourceID
	tk.Kill(func(e lock.Entry) { released = append(released, e.ResourceID) })

	want := []config.ResourceID{2, 1}
	if len(released) != len(want) {
		t.Fatalf("got %v, want %v", released, want)
	}
	for i := range want {
		if released[i] != want[i] {
			t.Fatalf("got %v, want %v", released, want)
		}
	}
	if !tk.Locks.IsEmpty() {
		t.Fatal("expected locks empty after kill")
	}
	if tk.Events.GetSet() != 0 {
		t.Fatal("expected event set mask cleared after kill")
	}
	if tk.MPAccessRightsCurrent != tk.MPAccessRightsInitial {
		t.Fatal("expected MP access rights reinitialized after kill")
	}
}
