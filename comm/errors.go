package comm

import "errors"

// Sentinel errors returned by communicator operations.
var (
	// ErrInvalidRoot is returned when a collective names a root rank
	// outside [0, Size()).
	ErrInvalidRoot = errors.New("root rank out of range")

	// ErrClosed is returned when an operation is attempted on a closed
	// communicator.
	ErrClosed = errors.New("communicator closed")

	// ErrShapeMismatch is returned when a reduction receives vectors of
	// differing lengths from its members.
	ErrShapeMismatch = errors.New("reduction vectors differ in length")

	// ErrConnRequired is returned when the NATS backend is constructed
	// without a connection.
	ErrConnRequired = errors.New("NATS connection is required")

	// ErrInvalidWorld is returned when the world size or rank passed to the
	// NATS backend is out of range.
	ErrInvalidWorld = errors.New("invalid world size or rank")
)
