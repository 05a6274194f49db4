package lock

import (
	"testing"

	"github.com/go-asros/kernel/pkg/config"
)

func TestList_LIFOEnforcement(t *testing.T) {
	var l List
	l.Push(Entry{ResourceID: 1, Kind: config.StandardResource, Ceiling: 4})
	l.Push(Entry{ResourceID: 2, Kind: config.StandardResource, Ceiling: 3})

	if _, ok := l.PopIfTopResource(1); ok {
		t.Fatal("expected LIFO violation releasing non-top resource to fail")
	}
	if _, ok := l.PopIfTopResource(2); !ok {
		t.Fatal("expected top resource release to succeed")
	}
	if _, ok := l.PopIfTopResource(1); !ok {
		t.Fatal("expected now-top resource release to succeed")
	}
	if !l.IsEmpty() {
		t.Fatal("expected list to be empty")
	}
}

func TestList_DrainLIFO(t *testing.T) {
	var l List
	l.Push(Entry{ResourceID: 1})
	l.Push(Entry{ResourceID: 2})
	l.Push(Entry{SpinlockID: 9, Kind: config.SpinlockKind})

	var released []int
	l.DrainLIFO(func(e Entry) {
		if e.Kind == config.SpinlockKind {
			released = append(released, int(e.SpinlockID)+100)
		} else {
			released = append(released, int(e.ResourceID))
		}
	})
	want := []int{109, 2, 1}
	if len(released) != len(want) {
		t.Fatalf("got %v, want %v", released, want)
	}
	for i := range want {
		if released[i] != want[i] {
			t.Fatalf("got %v, want %v", released, want)
		}
	}
	if !l.IsEmpty() {
		t.Fatal("expected list empty after DrainLIFO")
	}
}
