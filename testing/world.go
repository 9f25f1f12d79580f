package testing

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/chrinide/mbxas/comm"
)

// RunWorld runs fn concurrently for every rank of a size-rank world.
//
// An embedded NATS server backs the world; each rank gets its own connection
// and communicator, mirroring a real deployment where every rank is a
// separate process. All communicators are constructed before any fn starts,
// so tests may issue collectives immediately. fn must follow the collective
// discipline: every rank invokes the same operations in the same order.
//
// The world is torn down with the test. fn returning an error fails the
// test with that error.
//
// Parameters:
//   - t: Testing context for cleanup and failure reporting
//   - size: number of ranks
//   - fn: body executed once per rank
func RunWorld(t *testing.T, size int, fn func(ctx context.Context, world comm.Comm) error) {
	t.Helper()

	ns := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	worlds := make([]comm.Comm, size)
	for rank := 0; rank < size; rank++ {
		nc, err := nats.Connect(ns.ClientURL(), nats.Timeout(2*time.Second))
		if err != nil {
			t.Fatalf("rank %d: connect: %v", rank, err)
		}
		t.Cleanup(nc.Close)

		world, err := comm.NewNATS(ctx, nc, comm.Options{
			Size:   size,
			Rank:   rank,
			Logger: NewTestLogger(t),
		})
		if err != nil {
			t.Fatalf("rank %d: communicator: %v", rank, err)
		}
		t.Cleanup(func() { _ = world.Close() })
		worlds[rank] = world
	}

	var g errgroup.Group
	for rank := 0; rank < size; rank++ {
		world := worlds[rank]
		g.Go(func() error {
			return fn(ctx, world)
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("world of %d ranks failed: %v", size, err)
	}
}
