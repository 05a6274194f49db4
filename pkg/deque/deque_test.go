package deque

import (
	"reflect"
	"testing"
)

func TestDeque_EnqueuePeekDeleteTop(t *testing.T) {
	d := New[int](3)
	if !d.IsEmpty() {
		t.Fatal("expected new deque to be empty")
	}
	d.Enqueue(1)
	d.Enqueue(2)
	d.Enqueue(3)
	if !d.isFull() {
		t.Fatal("expected deque to be full")
	}
	if v, ok := d.Peek(); !ok || v != 1 {
		t.Fatalf("peek got (%v,%v), want (1,true)", v, ok)
	}
	if v, ok := d.DeleteTop(); !ok || v != 1 {
		t.Fatalf("delete top got (%v,%v), want (1,true)", v, ok)
	}
	if got := d.Slice(); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("got %v, want [2 3]", got)
	}
}

func TestDeque_Prepend(t *testing.T) {
	d := New[int](3)
	d.Enqueue(2)
	d.Enqueue(3)
	d.Prepend(1)
	if got := d.Slice(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
}

func TestDeque_DeletePreservesOrder(t *testing.T) {
	d := New[int](5)
	for i := 1; i <= 4; i++ {
		d.Enqueue(i)
	}
	if !d.Delete(2) {
		t.Fatal("expected delete of 2 to succeed")
	}
	if got := d.Slice(); !reflect.DeepEqual(got, []int{1, 3, 4}) {
		t.Fatalf("got %v, want [1 3 4]", got)
	}
	if d.Delete(99) {
		t.Fatal("deleting absent value should report false")
	}
}

func TestDeque_Requeue(t *testing.T) {
	d := New[int](3)
	d.Enqueue(1)
	d.Enqueue(2)
	d.Enqueue(3)
	d.Requeue()
	if got := d.Slice(); !reflect.DeepEqual(got, []int{2, 3, 1}) {
		t.Fatalf("got %v, want [2 3 1]", got)
	}
	d.Requeue()
	d.Requeue()
	if got := d.Slice(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("after 3 requeues, got %v, want [1 2 3]", got)
	}
}

func TestDeque_WrapAroundAfterChurn(t *testing.T) {
	d := New[int](3)
	d.Enqueue(1)
	d.Enqueue(2)
	d.Enqueue(3)
	d.DeleteTop()
	d.DeleteTop()
	d.Enqueue(4)
	d.Enqueue(5)
	if got := d.Slice(); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Fatalf("got %v, want [3 4 5]", got)
	}
}

func TestDeque_EnqueueOnFullPanics(t *testing.T) {
	d := New[int](1)
	d.Enqueue(1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on enqueue to full deque")
		}
	}()
	d.Enqueue(2)
}

func TestDeque_NonPowerOfTwoCapacity(t *testing.T) {
	// Regression: capacity 5 (not a power of two) must not corrupt indices
	// when Prepend wraps the head backwards repeatedly.
	d := New[int](5)
	for i := 0; i < 5; i++ {
		d.Prepend(i)
	}
	if got := d.Slice(); !reflect.DeepEqual(got, []int{4, 3, 2, 1, 0}) {
		t.Fatalf("got %v, want [4 3 2 1 0]", got)
	}
}
