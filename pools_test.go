package mbxas_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chrinide/mbxas"
	"github.com/chrinide/mbxas/comm"
	"github.com/chrinide/mbxas/strategy"
	mbxtest "github.com/chrinide/mbxas/testing"
	"github.com/chrinide/mbxas/topology"
	"github.com/chrinide/mbxas/types"
)

func TestNewPools_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := mbxas.NewPools(ctx, nil, 1, topology.PlacementContiguous)
	require.ErrorIs(t, err, mbxas.ErrCommRequired)

	_, err = mbxas.NewPools(ctx, comm.NewSerial(), 0, topology.PlacementContiguous)
	require.ErrorIs(t, err, topology.ErrInvalidMinPerPool)
}

func TestNewPools_Serial(t *testing.T) {
	ctx := context.Background()

	pools, err := mbxas.NewPools(ctx, comm.NewSerial(), 1, topology.PlacementContiguous)
	require.NoError(t, err)
	defer pools.Close()

	require.Equal(t, 1, pools.NumPools())
	require.Equal(t, 0, pools.PoolID())
	require.Equal(t, 0, pools.PoolRank())
	require.Equal(t, 1, pools.PoolSize())
	require.True(t, pools.IsPoolRoot())
	require.True(t, pools.IsGlobalRoot())
	require.NotNil(t, pools.Roots())
	require.Equal(t, 1, pools.Roots().Size())
}

func TestNewPools_ClampsOversizedMinimum(t *testing.T) {
	ctx := context.Background()

	pools, err := mbxas.NewPools(ctx, comm.NewSerial(), 8, topology.PlacementContiguous)
	require.NoError(t, err)
	defer pools.Close()

	require.Equal(t, 1, pools.NumPools())
	require.True(t, pools.Layout().Clamped)
}

func TestPools_Assign(t *testing.T) {
	ctx := context.Background()

	pools, err := mbxas.NewPools(ctx, comm.NewSerial(), 1, topology.PlacementContiguous)
	require.NoError(t, err)
	defer pools.Close()

	t.Run("before assign", func(t *testing.T) {
		_, err := pools.LocalTuples()
		require.ErrorIs(t, err, mbxas.ErrNoAssignment)
		_, err = pools.LocalOffsets()
		require.ErrorIs(t, err, mbxas.ErrNoAssignment)
		require.Equal(t, 0, pools.LocalCount())
	})

	t.Run("nil assigner", func(t *testing.T) {
		err := pools.Assign(types.Space{Spins: 1, TotalK: 2, UsedK: 2}, nil)
		require.ErrorIs(t, err, mbxas.ErrAssignerRequired)
	})

	t.Run("single pool receives everything", func(t *testing.T) {
		space := types.Space{Spins: 2, TotalK: 3, UsedK: 3}
		require.NoError(t, pools.Assign(space, strategy.NewStriped()))

		tuples, err := pools.LocalTuples()
		require.NoError(t, err)
		require.Len(t, tuples, 6)

		offsets, err := pools.LocalOffsets()
		require.NoError(t, err)
		require.Len(t, offsets, 6)
		for i, tuple := range tuples {
			require.Equal(t, space.Offset(tuple), offsets[i])
		}
	})
}

func TestNewPools_World(t *testing.T) {
	// 10 ranks at 3 per pool: 3 pools sized 4, 3, 3 under contiguous
	// placement.
	mbxtest.RunWorld(t, 10, func(ctx context.Context, world comm.Comm) error {
		pools, err := mbxas.NewPools(ctx, world, 3, topology.PlacementContiguous)
		if err != nil {
			return err
		}
		defer pools.Close()

		layout := pools.Layout()
		if pools.NumPools() != 3 {
			return fmt.Errorf("rank %d: expected 3 pools, got %d", world.Rank(), pools.NumPools())
		}
		if got, want := pools.PoolID(), layout.PoolOf(world.Rank()); got != want {
			return fmt.Errorf("rank %d: pool id %d, want %d", world.Rank(), got, want)
		}
		if got, want := pools.PoolSize(), layout.PoolSizes()[pools.PoolID()]; got != want {
			return fmt.Errorf("rank %d: pool size %d, want %d", world.Rank(), got, want)
		}

		// The lowest world rank of each pool must be its root.
		wantRoot := layout.Members(pools.PoolID())[0] == world.Rank()
		if pools.IsPoolRoot() != wantRoot {
			return fmt.Errorf("rank %d: IsPoolRoot=%v, want %v", world.Rank(), pools.IsPoolRoot(), wantRoot)
		}

		// Root group: exactly the pool roots, sized by pool count.
		if wantRoot {
			if pools.Roots() == nil {
				return fmt.Errorf("rank %d: pool root missing from root group", world.Rank())
			}
			if pools.Roots().Size() != 3 {
				return fmt.Errorf("rank %d: root group size %d, want 3", world.Rank(), pools.Roots().Size())
			}
			if pools.Roots().Rank() != pools.PoolID() {
				return fmt.Errorf("rank %d: root group rank %d, want pool id %d",
					world.Rank(), pools.Roots().Rank(), pools.PoolID())
			}
		} else if pools.Roots() != nil {
			return fmt.Errorf("rank %d: non-root joined root group", world.Rank())
		}

		// Intra-pool collective: summing world ranks inside each pool must
		// match the layout's member list.
		sum, err := pools.Pool().AllReduce(ctx, []float64{float64(world.Rank())}, comm.OpSum)
		if err != nil {
			return err
		}
		want := 0.0
		for _, r := range layout.Members(pools.PoolID()) {
			want += float64(r)
		}
		if sum[0] != want {
			return fmt.Errorf("rank %d: pool rank sum %v, want %v", world.Rank(), sum[0], want)
		}
		return nil
	})
}

func TestPools_AssignWorld(t *testing.T) {
	mbxtest.RunWorld(t, 6, func(ctx context.Context, world comm.Comm) error {
		pools, err := mbxas.NewPools(ctx, world, 2, topology.PlacementRemainder)
		if err != nil {
			return err
		}
		defer pools.Close()

		space := types.Space{Spins: 1, TotalK: 7, UsedK: 7}
		if err := pools.Assign(space, strategy.NewBlock()); err != nil {
			return err
		}

		// Every member of a pool sees the same tuples, and the pool counts
		// over the world sum to the space size.
		counts, err := world.AllReduce(ctx, []float64{float64(pools.LocalCount()) / float64(pools.PoolSize())}, comm.OpSum)
		if err != nil {
			return err
		}
		if counts[0] != float64(space.Count()) {
			return fmt.Errorf("rank %d: weighted tuple count %v, want %d", world.Rank(), counts[0], space.Count())
		}
		return nil
	})
}

func TestPools_InfoAll(t *testing.T) {
	t.Run("serial", func(t *testing.T) {
		ctx := context.Background()
		pools, err := mbxas.NewPools(ctx, comm.NewSerial(), 1, topology.PlacementContiguous)
		require.NoError(t, err)
		defer pools.Close()

		infos, err := pools.InfoAll(ctx, []byte("only"))
		require.NoError(t, err)
		require.Equal(t, [][]byte{[]byte("only")}, infos)
	})

	t.Run("world", func(t *testing.T) {
		// Remainder placement interleaves pool membership, so the staged
		// gather must reorder payloads back into world-rank order.
		mbxtest.RunWorld(t, 5, func(ctx context.Context, world comm.Comm) error {
			pools, err := mbxas.NewPools(ctx, world, 2, topology.PlacementRemainder)
			if err != nil {
				return err
			}
			defer pools.Close()

			local := []byte(fmt.Sprintf("host-%d", world.Rank()))
			infos, err := pools.InfoAll(ctx, local)
			if err != nil {
				return err
			}
			if len(infos) != 5 {
				return fmt.Errorf("rank %d: got %d payloads", world.Rank(), len(infos))
			}
			for rank, payload := range infos {
				if want := fmt.Sprintf("host-%d", rank); string(payload) != want {
					return fmt.Errorf("rank %d: payload[%d] = %q, want %q",
						world.Rank(), rank, payload, want)
				}
			}
			return nil
		})
	})
}
