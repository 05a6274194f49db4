package spinlock

import (
	"testing"

	"github.com/go-asros/kernel/pkg/config"
	"golang.org/x/sync/errgroup"
)

func TestSpinlock_TryLockExclusion(t *testing.T) {
	s := New(config.SpinlockConfig{ID: 1, AccessingApplications: 0x1})
	if !s.TryLock(1, true) {
		t.Fatal("expected first TryLock to succeed")
	}
	if s.TryLock(2, true) {
		t.Fatal("expected second TryLock to fail while held")
	}
	if s.Owner() != 1 {
		t.Fatalf("got owner %d, want 1", s.Owner())
	}
	s.Unlock(true)
	if s.Owner() != noOwner {
		t.Fatal("expected owner cleared after unlock")
	}
	if !s.TryLock(2, true) {
		t.Fatal("expected TryLock to succeed after unlock")
	}
}

func TestSpinlock_LockMutualExclusion(t *testing.T) {
	s := New(config.SpinlockConfig{ID: 1})
	s.Lock(1, false)

	acquired := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		s.Lock(2, false)
		close(acquired)
		s.Unlock(false)
		return nil
	})

	select {
	case <-acquired:
		t.Fatal("second Lock must not succeed while first holds the spinlock")
	default:
	}

	s.Unlock(false)
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestSpinlock_Allowed(t *testing.T) {
	s := New(config.SpinlockConfig{ID: 1, AccessingApplications: 0x2})
	if s.Allowed(0x1) {
		t.Fatal("expected application bit 0x1 not allowed")
	}
	if !s.Allowed(0x2) {
		t.Fatal("expected application bit 0x2 allowed")
	}
}
