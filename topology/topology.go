// Package topology computes how a fixed set of process ranks is divided into
// pools.
//
// The arithmetic here is pure: it never touches a communicator, so every rank
// can compute the full layout independently and deterministically. The actual
// sub-communicators are built on top of this by the root package.
package topology

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Compute.
var (
	// ErrInvalidSize is returned when the total process count is not positive.
	ErrInvalidSize = errors.New("total process count must be positive")

	// ErrInvalidMinPerPool is returned when the requested minimum pool size
	// is not positive.
	ErrInvalidMinPerPool = errors.New("minimum processes per pool must be positive")

	// ErrUnknownPolicy is returned for an unrecognized placement policy.
	ErrUnknownPolicy = errors.New("unknown placement policy")
)

// Policy selects how ranks are placed into pools.
type Policy int

const (
	// PlacementContiguous assigns ranks to pools in increasing contiguous
	// blocks: with 10 ranks and a minimum pool size of 3, pool 0 owns
	// {0,1,2,3}, pool 1 owns {4,5,6} and pool 2 owns {7,8,9}.
	PlacementContiguous Policy = iota

	// PlacementRemainder interleaves ranks across pools by rank modulo the
	// pool count: with 10 ranks and a minimum pool size of 3, pool 0 owns
	// {0,3,6,9}, pool 1 owns {1,4,7} and pool 2 owns {2,5,8}.
	PlacementRemainder
)

// String returns the policy name used in configs and logs.
func (p Policy) String() string {
	switch p {
	case PlacementContiguous:
		return "contiguous"
	case PlacementRemainder:
		return "remainder"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a config string into a Policy.
//
// Accepted values are "contiguous" and "remainder".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "contiguous":
		return PlacementContiguous, nil
	case "remainder":
		return PlacementRemainder, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Layout is the computed division of ranks into pools.
//
// A Layout is immutable once computed; every rank computing a Layout from the
// same inputs obtains the identical value.
type Layout struct {
	// Size is the total number of ranks.
	Size int

	// MinPerPool is the effective minimum pool size after clamping.
	MinPerPool int

	// NumPools is the number of pools: floor(Size / MinPerPool).
	NumPools int

	// Extra is Size mod NumPools, the number of pools that carry one rank
	// more than the base pool size Size/NumPools. Pool sizes therefore
	// differ by at most one under either policy.
	Extra int

	// Policy is the placement policy in effect.
	Policy Policy

	// Clamped reports that the requested minimum exceeded the process count
	// and was reduced to Size, collapsing the layout to a single pool. This
	// is a documented capacity fallback, not an error.
	Clamped bool
}

// Compute derives the pool layout for size ranks with at least minPerPool
// ranks per pool.
//
// When minPerPool exceeds size it is clamped to size, so the layout collapses
// to a single pool spanning every rank; Clamped is set so callers can emit a
// diagnostic. Malformed inputs (non-positive size or minimum) fail fast.
//
// Parameters:
//   - size: total process count, must be positive
//   - minPerPool: requested minimum ranks per pool, must be positive
//   - policy: rank placement policy
//
// Returns:
//   - Layout: the computed layout
//   - error: ErrInvalidSize, ErrInvalidMinPerPool or ErrUnknownPolicy
func Compute(size, minPerPool int, policy Policy) (Layout, error) {
	if size <= 0 {
		return Layout{}, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if minPerPool <= 0 {
		return Layout{}, fmt.Errorf("%w: got %d", ErrInvalidMinPerPool, minPerPool)
	}
	if policy != PlacementContiguous && policy != PlacementRemainder {
		return Layout{}, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(policy))
	}

	clamped := false
	if minPerPool > size {
		minPerPool = size
		clamped = true
	}

	numPools := size / minPerPool

	return Layout{
		Size:       size,
		MinPerPool: minPerPool,
		NumPools:   numPools,
		Extra:      size % numPools,
		Policy:     policy,
		Clamped:    clamped,
	}, nil
}

// PoolOf returns the pool id owning the given rank.
//
// The rank must be in [0, Size); PoolOf panics otherwise, since an
// out-of-range rank can only come from a programming error upstream of any
// validated input.
func (l Layout) PoolOf(rank int) int {
	if rank < 0 || rank >= l.Size {
		panic(fmt.Sprintf("topology: rank %d out of range [0, %d)", rank, l.Size))
	}
	if l.Policy == PlacementRemainder {
		return rank % l.NumPools
	}
	// Contiguous placement: the first Extra pools carry one rank more than
	// the base size, so the boundary between oversize and base-size pools
	// sits at Extra*(base+1).
	base := l.Size / l.NumPools
	boundary := l.Extra * (base + 1)
	if rank < boundary {
		return rank / (base + 1)
	}
	return (rank-boundary)/base + l.Extra
}

// Members returns the ordered ranks of the given pool.
func (l Layout) Members(pool int) []int {
	var members []int
	for r := 0; r < l.Size; r++ {
		if l.PoolOf(r) == pool {
			members = append(members, r)
		}
	}
	return members
}

// PoolSizes returns the member count of every pool, indexed by pool id.
func (l Layout) PoolSizes() []int {
	sizes := make([]int, l.NumPools)
	for r := 0; r < l.Size; r++ {
		sizes[l.PoolOf(r)]++
	}
	return sizes
}

// RootRanks returns, for every pool id, the lowest-numbered rank of the pool.
// These are the ranks that the communicator construction designates as pool
// roots.
func (l Layout) RootRanks() []int {
	roots := make([]int, l.NumPools)
	for i := range roots {
		roots[i] = -1
	}
	for r := 0; r < l.Size; r++ {
		if p := l.PoolOf(r); roots[p] < 0 {
			roots[p] = r
		}
	}
	return roots
}
