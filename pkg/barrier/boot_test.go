package barrier

import (
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestBoot_MasterSlaveHandshake(t *testing.T) {
	b := NewBoot()

	var g errgroup.Group
	g.Go(func() error {
		b.SlaveHandshake()
		b.SlaveAwaitStartCore()
		return nil
	})
	g.Go(func() error {
		b.MasterHandshake()
		b.MasterStartCore()
		return nil
	})
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
