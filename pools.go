package mbxas

import (
	"context"
	"fmt"

	"github.com/chrinide/mbxas/comm"
	"github.com/chrinide/mbxas/topology"
	"github.com/chrinide/mbxas/types"
)

// Pools is the hierarchical communicator structure of a computation: the
// world communicator split into process pools, plus the root-group
// communicator connecting the rank-0 member of every pool.
//
// A Pools is built collectively: every rank of the world must call NewPools
// with the same layout parameters. After construction each rank knows which
// pool it belongs to, its rank within that pool, and whether it is the
// pool's root.
type Pools struct {
	world comm.Comm
	pool  comm.Comm
	roots comm.Comm

	layout topology.Layout
	poolID int

	tuples  []types.Tuple
	offsets []int

	logger  types.Logger
	metrics types.MetricsCollector
}

// NewPools splits the world communicator into process pools according to the
// layout computed from minPerPool and the placement policy.
//
// All ranks must call NewPools with identical minPerPool and policy values;
// the layout is recomputed deterministically on every rank rather than
// negotiated. When minPerPool exceeds the world size it is clamped to a
// single pool spanning every rank, and a warning is logged on the global
// root.
//
// Parameters:
//   - ctx: bounds the collective split exchanges
//   - world: the world communicator from Attach
//   - minPerPool: minimum number of ranks per pool
//   - policy: rank placement policy
//   - opts: optional logger and metrics collector
//
// Returns:
//   - *Pools: the constructed pool hierarchy
//   - error: ErrCommRequired, a layout error, or a collective failure
//
// Example:
//
//	pools, err := mbxas.NewPools(ctx, world.Comm(), 3, topology.PlacementContiguous)
//	if err != nil {
//		return err
//	}
//	defer pools.Close()
func NewPools(ctx context.Context, world comm.Comm, minPerPool int, policy topology.Policy, opts ...Option) (*Pools, error) {
	if world == nil {
		return nil, ErrCommRequired
	}

	o := applyOptions(opts)

	layout, err := topology.Compute(world.Size(), minPerPool, policy)
	if err != nil {
		return nil, fmt.Errorf("compute layout: %w", err)
	}
	if layout.Clamped && world.Rank() == 0 {
		o.logger.Warn("minPerPool exceeds world size, clamped to a single pool",
			"minPerPool", minPerPool, "worldSize", world.Size())
	}

	poolID := layout.PoolOf(world.Rank())

	// Pool communicator: one child per pool, members re-ranked by world
	// rank so the lowest world rank of each pool becomes the pool root.
	pool, err := world.Split(ctx, poolID, world.Rank())
	if err != nil {
		return nil, fmt.Errorf("split pools: %w", err)
	}

	// Root-group communicator: pool roots join with their pool id as the
	// ordering key, every other rank sits the split out.
	color := comm.ColorUndefined
	if pool.Rank() == 0 {
		color = 0
	}
	roots, err := world.Split(ctx, color, poolID)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("split root group: %w", err)
	}

	o.metrics.SetWorldSize(world.Size())
	o.metrics.SetPoolCount(layout.NumPools)

	o.logger.Debug("pools formed",
		"numPools", layout.NumPools,
		"poolID", poolID,
		"poolRank", pool.Rank(),
		"poolSize", pool.Size(),
		"policy", layout.Policy.String())

	return &Pools{
		world:   world,
		pool:    pool,
		roots:   roots,
		layout:  layout,
		poolID:  poolID,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// World returns the world communicator the pools were built from.
func (p *Pools) World() comm.Comm { return p.world }

// Pool returns this rank's pool communicator.
func (p *Pools) Pool() comm.Comm { return p.pool }

// Roots returns the root-group communicator, or nil on ranks that are not
// pool roots.
func (p *Pools) Roots() comm.Comm { return p.roots }

// Layout returns the computed pool layout.
func (p *Pools) Layout() topology.Layout { return p.layout }

// NumPools returns the number of pools in the layout.
func (p *Pools) NumPools() int { return p.layout.NumPools }

// PoolID returns the index of the pool this rank belongs to.
func (p *Pools) PoolID() int { return p.poolID }

// PoolRank returns this rank's position within its pool.
func (p *Pools) PoolRank() int { return p.pool.Rank() }

// PoolSize returns the number of ranks in this rank's pool.
func (p *Pools) PoolSize() int { return p.pool.Size() }

// IsPoolRoot reports whether this rank is rank 0 of its pool.
func (p *Pools) IsPoolRoot() bool { return p.pool.Rank() == 0 }

// IsGlobalRoot reports whether this rank is rank 0 of the world.
func (p *Pools) IsGlobalRoot() bool { return p.world.Rank() == 0 }

// Assign partitions the work space over the pools with the given assigner
// and records the tuples assigned to this rank's pool.
//
// Assign is pure bookkeeping: every rank computes the full partition locally
// and keeps its own pool's slice, so no communication happens. All ranks
// must use the same assigner and space for the partition to be consistent.
//
// Parameters:
//   - space: the work space to partition
//   - assigner: the assignment policy
//
// Returns:
//   - error: ErrAssignerRequired, a space validation error, or an assigner
//     failure
func (p *Pools) Assign(space types.Space, assigner types.Assigner) error {
	if assigner == nil {
		return ErrAssignerRequired
	}

	pools, err := assigner.Assign(space, p.layout.NumPools)
	if err != nil {
		return fmt.Errorf("assign work: %w", err)
	}

	p.tuples = pools[p.poolID]
	p.offsets = make([]int, len(p.tuples))
	for i, t := range p.tuples {
		p.offsets[i] = space.Offset(t)
	}

	p.metrics.SetLocalWorkCount(len(p.tuples))
	p.logger.Debug("work assigned",
		"pool", p.poolID,
		"localTuples", len(p.tuples),
		"totalTuples", space.Count())
	return nil
}

// LocalTuples returns the work tuples assigned to this rank's pool, in
// assignment order.
//
// Returns ErrNoAssignment before Assign has run.
func (p *Pools) LocalTuples() ([]types.Tuple, error) {
	if p.offsets == nil {
		return nil, ErrNoAssignment
	}
	return p.tuples, nil
}

// LocalOffsets returns the linear offsets of this pool's tuples, parallel to
// LocalTuples.
func (p *Pools) LocalOffsets() ([]int, error) {
	if p.offsets == nil {
		return nil, ErrNoAssignment
	}
	return p.offsets, nil
}

// LocalCount returns the number of tuples assigned to this rank's pool, or 0
// before Assign has run.
func (p *Pools) LocalCount() int {
	return len(p.tuples)
}

// Close releases the pool and root-group communicators. The world
// communicator is left open; it belongs to the caller.
func (p *Pools) Close() error {
	var firstErr error
	if p.roots != nil {
		if err := p.roots.Close(); err != nil {
			firstErr = err
		}
	}
	if err := p.pool.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
