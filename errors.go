package mbxas

import "errors"

// Sentinel errors returned by the root package.
var (
	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCommRequired is returned when NewPools is called with a nil world
	// communicator.
	ErrCommRequired = errors.New("world communicator is required")

	// ErrNoAssignment is returned when local work tuples are requested
	// before Assign has run.
	ErrNoAssignment = errors.New("work space not assigned")

	// ErrAssignerRequired is returned when Assign is called with a nil
	// assigner.
	ErrAssignerRequired = errors.New("work assigner is required")

	// ErrKernelRequired is returned when Fold is called with a nil kernel.
	ErrKernelRequired = errors.New("compute kernel is required")

	// ErrShapeMismatch is returned when a kernel produces a matrix whose
	// dimensions differ from the accumulator's.
	ErrShapeMismatch = errors.New("kernel result shape mismatch")
)
