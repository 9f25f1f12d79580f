package strategy

import (
	"fmt"

	"github.com/chrinide/mbxas/types"
)

// Striped assigns work tuples to pools round-robin by global offset.
type Striped struct{}

var _ types.Assigner = (*Striped)(nil)

// NewStriped creates a new striped assigner.
//
// The tuple (s, k) with global offset s*TotalK + k is owned by pool
// offset mod numPools. Each pool's sequence is ordered by increasing offset.
//
// Example (2 spins, 5 k-points, 3 pools):
//
//	pool    tuples                          offsets
//	   0    (0,0) (0,3) (1,1) (1,4)         0, 3, 6, 9
//	   1    (0,1) (0,4) (1,2)               1, 4, 7
//	   2    (0,2) (1,0) (1,3)               2, 5, 8
//
// Returns:
//   - *Striped: initialized striped assigner
func NewStriped() *Striped {
	return &Striped{}
}

// Assign partitions the work space round-robin across numPools pools.
//
// Parameters:
//   - space: work-space dimensions
//   - numPools: number of pools, must be positive
//
// Returns:
//   - [][]types.Tuple: ordered tuple sequence per pool id
//   - error: space validation error or ErrNoPools
func (st *Striped) Assign(space types.Space, numPools int) ([][]types.Tuple, error) {
	if err := space.Validate(); err != nil {
		return nil, fmt.Errorf("striped assignment: %w", err)
	}
	if numPools <= 0 {
		return nil, fmt.Errorf("striped assignment: %w: got %d", ErrNoPools, numPools)
	}

	pools := make([][]types.Tuple, numPools)
	for spin := 0; spin < space.Spins; spin++ {
		for k := 0; k < space.UsedK; k++ {
			t := types.Tuple{Spin: spin, K: k}
			pool := space.Offset(t) % numPools
			pools[pool] = append(pools[pool], t)
		}
	}

	return pools, nil
}
