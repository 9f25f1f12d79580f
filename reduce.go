package mbxas

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/chrinide/mbxas/comm"
)

// MaxAll returns the maximum of v over every member of c, replicated on all
// members.
//
// Parameters:
//   - ctx: bounds the collective
//   - c: the communicator to reduce over
//   - v: this member's value
//
// Returns:
//   - float64: the global maximum
//   - error: collective failure
func MaxAll(ctx context.Context, c comm.Comm, v float64) (float64, error) {
	out, err := c.AllReduce(ctx, []float64{v}, comm.OpMax)
	if err != nil {
		return 0, fmt.Errorf("max all: %w", err)
	}
	return out[0], nil
}

// SumAll sums vec element-wise over every member of c and replicates the
// result on all members. The input is not modified.
func SumAll(ctx context.Context, c comm.Comm, vec []float64) ([]float64, error) {
	out, err := c.AllReduce(ctx, vec, comm.OpSum)
	if err != nil {
		return nil, fmt.Errorf("sum all: %w", err)
	}
	return out, nil
}

// SumAllComplex sums a complex vector element-wise over every member of c.
//
// The vector crosses the wire as interleaved real and imaginary parts, so a
// complex sum costs one collective of twice the length.
func SumAllComplex(ctx context.Context, c comm.Comm, vec []complex128) ([]complex128, error) {
	flat := make([]float64, 2*len(vec))
	for i, z := range vec {
		flat[2*i] = real(z)
		flat[2*i+1] = imag(z)
	}

	summed, err := c.AllReduce(ctx, flat, comm.OpSum)
	if err != nil {
		return nil, fmt.Errorf("sum all complex: %w", err)
	}

	out := make([]complex128, len(vec))
	for i := range out {
		out[i] = complex(summed[2*i], summed[2*i+1])
	}
	return out, nil
}

// SumAllDense sums a dense matrix element-wise over every member of c and
// replicates the result on all members.
//
// Every member must pass a matrix of identical dimensions; the backing data
// is reduced row-major in a single collective. The input matrix is not
// modified.
func SumAllDense(ctx context.Context, c comm.Comm, m *mat.Dense) (*mat.Dense, error) {
	raw := m.RawMatrix()
	rows, cols := raw.Rows, raw.Cols

	// RawMatrix data may carry a stride wider than Cols; pack it tight so
	// the wire length is exactly rows*cols on every member.
	flat := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		copy(flat[r*cols:(r+1)*cols], raw.Data[r*raw.Stride:r*raw.Stride+cols])
	}

	summed, err := c.AllReduce(ctx, flat, comm.OpSum)
	if err != nil {
		return nil, fmt.Errorf("sum all dense: %w", err)
	}
	return mat.NewDense(rows, cols, summed), nil
}
