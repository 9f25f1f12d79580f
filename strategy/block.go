package strategy

import (
	"fmt"

	"github.com/chrinide/mbxas/types"
)

// Block assigns contiguous blocks of k-points to pools, every spin channel
// included.
type Block struct{}

var _ types.Assigner = (*Block)(nil)

// NewBlock creates a new block assigner.
//
// The k-point range [0, UsedK) is split into numPools contiguous blocks of
// nearly equal length: the base block length is UsedK/numPools and the first
// UsedK mod numPools pools carry one extra k-point, the same split arithmetic
// used for contiguous rank placement. A pool owns, for every k-point in its
// block, the tuples of all spin channels at that k-point, ordered k-major and
// spin-minor.
//
// Example (2 spins, 5 k-points, 3 pools):
//
//	pool    tuples                          offsets
//	   0    (0,0) (1,0) (0,1) (1,1)         0, 5, 1, 6
//	   1    (0,2) (1,2) (0,3) (1,3)         2, 7, 3, 8
//	   2    (0,4) (1,4)                     4, 9
//
// Returns:
//   - *Block: initialized block assigner
func NewBlock() *Block {
	return &Block{}
}

// Assign partitions the work space into contiguous k-blocks across numPools
// pools.
//
// Parameters:
//   - space: work-space dimensions
//   - numPools: number of pools, must be positive
//
// Returns:
//   - [][]types.Tuple: ordered tuple sequence per pool id
//   - error: space validation error or ErrNoPools
func (b *Block) Assign(space types.Space, numPools int) ([][]types.Tuple, error) {
	if err := space.Validate(); err != nil {
		return nil, fmt.Errorf("block assignment: %w", err)
	}
	if numPools <= 0 {
		return nil, fmt.Errorf("block assignment: %w: got %d", ErrNoPools, numPools)
	}

	base := space.UsedK / numPools
	extra := space.UsedK % numPools

	pools := make([][]types.Tuple, numPools)
	for pool := 0; pool < numPools; pool++ {
		start := base*pool + min(extra, pool)
		length := base
		if pool < extra {
			length++
		}
		for k := start; k < start+length; k++ {
			for spin := 0; spin < space.Spins; spin++ {
				pools[pool] = append(pools[pool], types.Tuple{Spin: spin, K: k})
			}
		}
	}

	return pools, nil
}
