package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for work-space validation.
var (
	// ErrInvalidSpace is returned when a work space has non-positive or
	// inconsistent dimensions.
	ErrInvalidSpace = errors.New("invalid work space")
)

// Tuple identifies one independent unit of work: the spectral computation for
// one spin channel at one k-point.
type Tuple struct {
	// Spin is the spin channel index in [0, Space.Spins).
	Spin int

	// K is the k-point index in [0, Space.UsedK).
	K int
}

// String returns the tuple in "(spin, k)" form, the way it appears in
// diagnostic reports.
func (t Tuple) String() string {
	return fmt.Sprintf("(%d, %d)", t.Spin, t.K)
}

// Space describes the two-dimensional spin x k-point index space over which
// work is distributed.
//
// TotalK may exceed UsedK when only a leading subset of the k-point mesh is
// computed; global offsets are always laid out against the full mesh so that
// result arrays keep a stable shape regardless of how many k-points are in
// use.
type Space struct {
	// Spins is the number of spin channels (typically 1 or 2).
	Spins int

	// TotalK is the total number of k-points in the mesh.
	TotalK int

	// UsedK is the number of leading k-points actually computed.
	// Must satisfy 0 < UsedK <= TotalK.
	UsedK int
}

// Validate checks the space dimensions.
//
// Returns:
//   - error: wrapping ErrInvalidSpace when any dimension is non-positive or
//     UsedK exceeds TotalK, nil otherwise
func (s Space) Validate() error {
	if s.Spins <= 0 {
		return fmt.Errorf("%w: spins must be positive, got %d", ErrInvalidSpace, s.Spins)
	}
	if s.TotalK <= 0 {
		return fmt.Errorf("%w: total k-points must be positive, got %d", ErrInvalidSpace, s.TotalK)
	}
	if s.UsedK <= 0 || s.UsedK > s.TotalK {
		return fmt.Errorf("%w: used k-points must be in [1, %d], got %d", ErrInvalidSpace, s.TotalK, s.UsedK)
	}
	return nil
}

// Count returns the number of tuples in the space: Spins * UsedK.
func (s Space) Count() int {
	return s.Spins * s.UsedK
}

// Offset returns the global offset of a tuple: spin*TotalK + k.
//
// Offsets index into result arrays sized for the full k-mesh, so two spaces
// that differ only in UsedK address the same positions for shared tuples.
func (s Space) Offset(t Tuple) int {
	return t.Spin*s.TotalK + t.K
}

// All returns every tuple of the space in offset order (spin-major).
func (s Space) All() []Tuple {
	tuples := make([]Tuple, 0, s.Count())
	for spin := 0; spin < s.Spins; spin++ {
		for k := 0; k < s.UsedK; k++ {
			tuples = append(tuples, Tuple{Spin: spin, K: k})
		}
	}
	return tuples
}
