package barrier

import (
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestCounter_TwoAttendeeRendezvous(t *testing.T) {
	c := NewCounter(2)
	c.Attach(0)
	c.Attach(1)

	var g errgroup.Group
	rounds := 50
	for attendee := 0; attendee < 2; attendee++ {
		attendee := attendee
		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				c.Synchronize(attendee)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestCounter_DetachedAttendeeIgnored(t *testing.T) {
	c := NewCounter(2)
	c.Attach(0)
	c.Attach(1)
	c.Detach(1)

	done := make(chan struct{})
	go func() {
		c.Synchronize(0)
		close(done)
	}()
	<-done // must not block on the detached attendee
}

func TestCounter_LateAttachAfterPeerAdvanced(t *testing.T) {
	c := NewCounter(3)
	c.Attach(0)
	c.Synchronize(0)
	c.Synchronize(0)

	c.Attach(1)
	if !c.Attached(1) {
		t.Fatal("expected attendee 1 attached")
	}
}

func TestLess_WrapSafe(t *testing.T) {
	// Exactly half-range apart, both directions compare "less": the
	// formula is symmetric at the boundary (spec.md §4.6 documents
	// correctness only for differences <= 2^(W-1)-1).
	if !less(0, 1<<31) || !less(1<<31, 0) {
		t.Fatal("expected exact half-range difference to compare less in both directions")
	}
	if !less(100, 200) {
		t.Fatal("expected ordinary order to hold within half range")
	}
	if less(200, 100) {
		t.Fatal("expected 200 not less than 100")
	}
}
