package bitset

import "testing"

func TestArray_SetClearTest(t *testing.T) {
	var a Array[uint32]
	if !a.IsEmpty() {
		t.Fatal("expected empty array")
	}
	a.Set(5)
	a.Set(2)
	if !a.Test(5) || !a.Test(2) {
		t.Fatal("expected bits 5 and 2 set")
	}
	if a.Test(3) {
		t.Fatal("bit 3 should not be set")
	}
	a.Clear(5)
	if a.Test(5) {
		t.Fatal("bit 5 should have been cleared")
	}
}

func TestArray_CountLeadingZero(t *testing.T) {
	var a Array[uint32]
	if got := a.CountLeadingZero(); got != NoPriority {
		t.Fatalf("empty array: got %d, want NoPriority", got)
	}
	a.Set(31) // idle task, lowest priority
	if got := a.CountLeadingZero(); got != 31 {
		t.Fatalf("got %d, want 31", got)
	}
	a.Set(5)
	if got := a.CountLeadingZero(); got != 5 {
		t.Fatalf("got %d, want 5 (highest priority bit wins)", got)
	}
	a.Clear(5)
	if got := a.CountLeadingZero(); got != 31 {
		t.Fatalf("got %d, want 31 after clearing 5", got)
	}
}

func TestArray_Wide64(t *testing.T) {
	var a Array[uint64]
	a.Set(63)
	if got := a.CountLeadingZero(); got != 63 {
		t.Fatalf("got %d, want 63", got)
	}
}
