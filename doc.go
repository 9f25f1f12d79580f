// Package mbxas partitions a fixed set of cooperating processes into pools
// and distributes spin/k-point work tuples across them.
//
// Each pool owns an exclusive, exhaustive subset of the two-dimensional
// spin x k-point work space and computes its tuples independently; generic
// reduction primitives then combine the per-tuple partial results into one
// value replicated identically on every process. The physics that turns a
// tuple into a partial result stays outside this library, behind the Kernel
// function type.
//
// # Quick Start
//
//	cfg := mbxas.DefaultConfig()
//	cfg.WorldSize = 10
//	cfg.MinPerPool = 3
//
//	world, err := mbxas.Attach(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer world.Close()
//
//	pools, err := mbxas.NewPools(ctx, world.Comm(), cfg.MinPerPool, topology.PlacementContiguous)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pools.Close()
//
//	space := mbxas.Space{Spins: 2, TotalK: 64, UsedK: 64}
//	if err := pools.Assign(space, strategy.NewBlock()); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := pools.Fold(ctx, rows, cols, kernel)
//
// # Architecture
//
// Attach selects the communicator backend: multi-process over NATS when a
// server is reachable, a trivial single-process fallback otherwise. NewPools
// splits the world into pools under one of two placement policies
// (contiguous blocks or rank-interleaved) and forms a second-level
// communicator over the pool roots for inter-pool aggregation. A strategy
// (striped or block) assigns work tuples to pools, and Fold drives the
// caller's kernel over the locally owned tuples before the final
// whole-world reductions.
//
// # Collective Discipline
//
// Every process belonging to a communicator must issue the same collective
// operations in the same order. No timeout is imposed on a stalled
// collective; callers bound waits through contexts. A crashed process
// therefore stalls its communicator - fault tolerance is out of scope.
package mbxas
