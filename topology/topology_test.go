package topology

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompute_Validation(t *testing.T) {
	t.Run("rejects non-positive size", func(t *testing.T) {
		_, err := Compute(0, 3, PlacementContiguous)
		require.ErrorIs(t, err, ErrInvalidSize)

		_, err = Compute(-4, 3, PlacementContiguous)
		require.ErrorIs(t, err, ErrInvalidSize)
	})

	t.Run("rejects non-positive minimum", func(t *testing.T) {
		_, err := Compute(10, 0, PlacementRemainder)
		require.ErrorIs(t, err, ErrInvalidMinPerPool)
	})

	t.Run("rejects unknown policy", func(t *testing.T) {
		_, err := Compute(10, 3, Policy(42))
		require.ErrorIs(t, err, ErrUnknownPolicy)
	})

	t.Run("clamps oversized minimum to a single pool", func(t *testing.T) {
		layout, err := Compute(4, 9, PlacementContiguous)
		require.NoError(t, err)
		require.True(t, layout.Clamped)
		require.Equal(t, 1, layout.NumPools)
		require.Equal(t, 4, layout.MinPerPool)
		require.Equal(t, []int{0, 1, 2, 3}, layout.Members(0))
	})
}

func TestLayout_ContiguousExample(t *testing.T) {
	// 10 ranks with at least 3 per pool: contiguous blocks {0..3} {4..6} {7..9}.
	layout, err := Compute(10, 3, PlacementContiguous)
	require.NoError(t, err)

	require.Equal(t, 3, layout.NumPools)
	require.Equal(t, []int{0, 1, 2, 3}, layout.Members(0))
	require.Equal(t, []int{4, 5, 6}, layout.Members(1))
	require.Equal(t, []int{7, 8, 9}, layout.Members(2))
	require.Equal(t, []int{4, 3, 3}, layout.PoolSizes())
	require.Equal(t, []int{0, 4, 7}, layout.RootRanks())
}

func TestLayout_RemainderExample(t *testing.T) {
	// Same shape, interleaved: {0,3,6,9} {1,4,7} {2,5,8}.
	layout, err := Compute(10, 3, PlacementRemainder)
	require.NoError(t, err)

	require.Equal(t, 3, layout.NumPools)
	require.Equal(t, []int{0, 3, 6, 9}, layout.Members(0))
	require.Equal(t, []int{1, 4, 7}, layout.Members(1))
	require.Equal(t, []int{2, 5, 8}, layout.Members(2))
	require.Equal(t, []int{0, 1, 2}, layout.RootRanks())

	for r := 0; r < layout.Size; r++ {
		require.Equal(t, r%layout.NumPools, layout.PoolOf(r))
	}
}

func TestLayout_Properties(t *testing.T) {
	// Every rank maps to exactly one pool and pool sizes sum to the total,
	// for a sweep of sizes and minimums under both policies.
	for _, policy := range []Policy{PlacementContiguous, PlacementRemainder} {
		for size := 1; size <= 24; size++ {
			for minPerPool := 1; minPerPool <= size+2; minPerPool++ {
				name := fmt.Sprintf("%s/P=%d/M=%d", policy, size, minPerPool)
				t.Run(name, func(t *testing.T) {
					layout, err := Compute(size, minPerPool, policy)
					require.NoError(t, err)

					sizes := layout.PoolSizes()
					require.Len(t, sizes, layout.NumPools)

					total := 0
					for _, n := range sizes {
						total += n
						require.GreaterOrEqual(t, n, layout.MinPerPool)
					}
					require.Equal(t, size, total)

					for r := 0; r < size; r++ {
						pool := layout.PoolOf(r)
						require.GreaterOrEqual(t, pool, 0)
						require.Less(t, pool, layout.NumPools)
					}

					roots := layout.RootRanks()
					require.Len(t, roots, layout.NumPools)
					for pool, root := range roots {
						members := layout.Members(pool)
						require.NotEmpty(t, members)
						require.Equal(t, members[0], root)
					}
				})
			}
		}
	}
}

func TestLayout_ContiguousIsNonDecreasing(t *testing.T) {
	for size := 1; size <= 24; size++ {
		for minPerPool := 1; minPerPool <= size; minPerPool++ {
			layout, err := Compute(size, minPerPool, PlacementContiguous)
			require.NoError(t, err)
			prev := 0
			for r := 0; r < size; r++ {
				pool := layout.PoolOf(r)
				require.GreaterOrEqual(t, pool, prev)
				require.LessOrEqual(t, pool-prev, 1)
				prev = pool
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("contiguous")
	require.NoError(t, err)
	require.Equal(t, PlacementContiguous, p)

	p, err = ParsePolicy("remainder")
	require.NoError(t, err)
	require.Equal(t, PlacementRemainder, p)

	_, err = ParsePolicy("scattered")
	require.ErrorIs(t, err, ErrUnknownPolicy)
}
