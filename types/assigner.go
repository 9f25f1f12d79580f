package types

// Assigner computes which pool owns which work tuples.
//
// Assign partitions the full work space across numPools pools: every tuple of
// the space appears in exactly one pool's sequence, and the union over all
// pools is the full space. The two provided implementations (striped and
// block) produce different but equally valid partitions; callers choose one
// explicitly because downstream file layouts may depend on tuple ordering.
type Assigner interface {
	// Assign returns, for each pool id in [0, numPools), the ordered
	// sequence of tuples that pool owns.
	//
	// Parameters:
	//   - space: work-space dimensions (validated by the implementation)
	//   - numPools: number of pools; must be positive
	//
	// Returns:
	//   - [][]Tuple: one ordered tuple sequence per pool id
	//   - error: validation error for a malformed space or pool count
	Assign(space Space, numPools int) ([][]Tuple, error)
}
