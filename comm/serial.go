package comm

import (
	"bytes"
	"context"
	"fmt"
)

// Serial is the single-process communicator.
//
// Every collective degenerates to the identity: the calling process is both
// root and sole member. It is selected automatically when no messaging
// runtime is available, so the rest of the library runs unchanged with one
// pool of size one.
type Serial struct{}

var _ Comm = (*Serial)(nil)

// NewSerial creates the single-process communicator.
func NewSerial() *Serial {
	return &Serial{}
}

// Size returns 1.
func (s *Serial) Size() int { return 1 }

// Rank returns 0.
func (s *Serial) Rank() int { return 0 }

// Split returns a fresh serial communicator, or nil for ColorUndefined.
func (s *Serial) Split(_ context.Context, color, _ int) (Comm, error) {
	if color == ColorUndefined {
		return nil, nil
	}
	return NewSerial(), nil
}

// Gather returns the caller's own payload as the sole entry.
func (s *Serial) Gather(_ context.Context, data []byte, root int) ([][]byte, error) {
	if root != 0 {
		return nil, fmt.Errorf("%w: %d in size-1 communicator", ErrInvalidRoot, root)
	}
	return [][]byte{bytes.Clone(data)}, nil
}

// Bcast returns the caller's own payload.
func (s *Serial) Bcast(_ context.Context, data []byte, root int) ([]byte, error) {
	if root != 0 {
		return nil, fmt.Errorf("%w: %d in size-1 communicator", ErrInvalidRoot, root)
	}
	return bytes.Clone(data), nil
}

// Reduce returns a copy of the caller's own vector.
func (s *Serial) Reduce(_ context.Context, data []float64, _ Op, root int) ([]float64, error) {
	if root != 0 {
		return nil, fmt.Errorf("%w: %d in size-1 communicator", ErrInvalidRoot, root)
	}
	out := make([]float64, len(data))
	copy(out, data)
	return out, nil
}

// AllReduce returns a copy of the caller's own vector.
func (s *Serial) AllReduce(ctx context.Context, data []float64, op Op) ([]float64, error) {
	return s.Reduce(ctx, data, op, 0)
}

// Close is a no-op.
func (s *Serial) Close() error { return nil }
