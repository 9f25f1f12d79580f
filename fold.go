package mbxas

import (
	"context"
	"fmt"
	"math"

	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/chrinide/mbxas/types"
)

// Kernel computes one work tuple's contribution to the folded result.
//
// The kernel runs on every member of the pool that owns the tuple, and the
// members' outputs must sum to the tuple's full contribution: a kernel whose
// inner work is itself distributed over the pool returns each member's
// partial rows, while a kernel that computes the tuple entirely returns the
// full contribution at pool rank 0 and a zero matrix elsewhere.
//
// Parameters:
//   - ctx: cancellation for the tuple's computation
//   - t: the work tuple
//   - offset: the tuple's linear offset in the work space
//
// Returns:
//   - *mat.Dense: this member's contribution, rows × cols as passed to Fold
//   - error: aborts the fold on every subsequent local tuple
type Kernel func(ctx context.Context, t types.Tuple, offset int) (*mat.Dense, error)

// FoldOption configures a Fold call.
type FoldOption func(*foldOptions)

type foldOptions struct {
	intensityThreshold float64
	progress           bool
}

// WithIntensityThreshold drops weak contributions before the final sum.
//
// After local accumulation the global peak magnitude is agreed on
// collectively, and every accumulator element whose magnitude falls below
// peak * sqrt(threshold) is zeroed. This bounds the relative error of the
// folded result by the threshold while letting sparse accumulators compress.
//
// Parameters:
//   - threshold: relative intensity cutoff in (0, 1); 0 disables filtering
func WithIntensityThreshold(threshold float64) FoldOption {
	return func(o *foldOptions) {
		o.intensityThreshold = threshold
	}
}

// WithProgress renders a progress bar over the local tuple loop on the
// global root rank. Other ranks stay silent.
func WithProgress() FoldOption {
	return func(o *foldOptions) {
		o.progress = true
	}
}

// Fold runs the kernel over this pool's assigned tuples and combines every
// pool's contributions into the global rows × cols result, replicated on all
// ranks.
//
// Fold is collective over the world: every rank must call it with the same
// dimensions and options, after the same Assign. The sequence on each rank
// is local accumulation, an optional collective intensity filter, and a
// world-wide element-wise sum.
//
// Parameters:
//   - ctx: bounds the kernel runs and the collectives
//   - rows, cols: dimensions of the result matrix
//   - kernel: per-tuple compute function
//   - opts: optional intensity filter and progress reporting
//
// Returns:
//   - *mat.Dense: the folded global result
//   - error: ErrKernelRequired, ErrNoAssignment, ErrShapeMismatch wrapping
//     the offending tuple, a kernel error, or a collective failure
func (p *Pools) Fold(ctx context.Context, rows, cols int, kernel Kernel, opts ...FoldOption) (*mat.Dense, error) {
	if kernel == nil {
		return nil, ErrKernelRequired
	}
	if p.offsets == nil {
		return nil, ErrNoAssignment
	}

	o := &foldOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var bar *progressbar.ProgressBar
	if o.progress && p.IsGlobalRoot() {
		bar = progressbar.NewOptions(len(p.tuples),
			progressbar.OptionSetDescription("folding"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	acc := mat.NewDense(rows, cols, nil)
	for i, t := range p.tuples {
		out, err := kernel(ctx, t, p.offsets[i])
		if err != nil {
			return nil, fmt.Errorf("kernel %s: %w", t, err)
		}
		r, c := out.Dims()
		if r != rows || c != cols {
			return nil, fmt.Errorf("%w: tuple %s produced %dx%d, want %dx%d",
				ErrShapeMismatch, t, r, c, rows, cols)
		}
		acc.Add(acc, out)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if o.intensityThreshold > 0 {
		if err := p.filterWeak(ctx, acc, o.intensityThreshold); err != nil {
			return nil, err
		}
	}

	result, err := SumAllDense(ctx, p.world, acc)
	if err != nil {
		return nil, fmt.Errorf("fold: %w", err)
	}

	p.logger.Debug("fold complete",
		"localTuples", len(p.tuples), "rows", rows, "cols", cols)
	return result, nil
}

// filterWeak zeroes accumulator elements whose magnitude falls below the
// collectively agreed cutoff.
func (p *Pools) filterWeak(ctx context.Context, acc *mat.Dense, threshold float64) error {
	localPeak := 0.0
	raw := acc.RawMatrix()
	for r := 0; r < raw.Rows; r++ {
		for _, v := range raw.Data[r*raw.Stride : r*raw.Stride+raw.Cols] {
			if a := math.Abs(v); a > localPeak {
				localPeak = a
			}
		}
	}

	peak, err := MaxAll(ctx, p.world, localPeak)
	if err != nil {
		return fmt.Errorf("fold peak: %w", err)
	}
	if peak == 0 {
		return nil
	}

	cutoff := peak * math.Sqrt(threshold)
	for r := 0; r < raw.Rows; r++ {
		row := raw.Data[r*raw.Stride : r*raw.Stride+raw.Cols]
		for i, v := range row {
			if math.Abs(v) < cutoff {
				row[i] = 0
			}
		}
	}
	return nil
}
