package comm_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chrinide/mbxas/comm"
	mbxtest "github.com/chrinide/mbxas/testing"
)

func TestNATS_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := comm.NewNATS(ctx, nil, comm.Options{Size: 2, Rank: 0})
	require.ErrorIs(t, err, comm.ErrConnRequired)

	_, nc := mbxtest.StartEmbeddedNATS(t)
	_, err = comm.NewNATS(ctx, nc, comm.Options{Size: 2, Rank: 5})
	require.ErrorIs(t, err, comm.ErrInvalidWorld)

	_, err = comm.NewNATS(ctx, nc, comm.Options{Size: 0, Rank: 0})
	require.ErrorIs(t, err, comm.ErrInvalidWorld)
}

func TestNATS_GatherBcast(t *testing.T) {
	mbxtest.RunWorld(t, 4, func(ctx context.Context, world comm.Comm) error {
		payload := []byte(fmt.Sprintf("from-%d", world.Rank()))

		gathered, err := world.Gather(ctx, payload, 0)
		if err != nil {
			return err
		}
		if world.Rank() == 0 {
			if len(gathered) != 4 {
				return fmt.Errorf("gathered %d entries, want 4", len(gathered))
			}
			for r, buf := range gathered {
				want := fmt.Sprintf("from-%d", r)
				if string(buf) != want {
					return fmt.Errorf("rank %d entry = %q, want %q", r, buf, want)
				}
			}
		} else if gathered != nil {
			return fmt.Errorf("non-root gather returned %v", gathered)
		}

		// Root distributes a decision to everyone.
		blob, err := world.Bcast(ctx, []byte("threshold=0.5"), 0)
		if err != nil {
			return err
		}
		if string(blob) != "threshold=0.5" {
			return fmt.Errorf("bcast delivered %q", blob)
		}
		return nil
	})
}

func TestNATS_ReduceAllReduce(t *testing.T) {
	const size = 5
	mbxtest.RunWorld(t, size, func(ctx context.Context, world comm.Comm) error {
		rank := float64(world.Rank())
		vec := []float64{rank, -rank, 1}

		// Sum over all ranks: 0+1+...+4 = 10.
		sum, err := world.Reduce(ctx, vec, comm.OpSum, 0)
		if err != nil {
			return err
		}
		if world.Rank() == 0 {
			want := []float64{10, -10, size}
			for i := range want {
				if sum[i] != want[i] {
					return fmt.Errorf("reduce sum[%d] = %v, want %v", i, sum[i], want[i])
				}
			}
		} else if sum != nil {
			return fmt.Errorf("non-root reduce returned %v", sum)
		}

		// Max replicated everywhere.
		maxed, err := world.AllReduce(ctx, []float64{rank}, comm.OpMax)
		if err != nil {
			return err
		}
		if maxed[0] != size-1 {
			return fmt.Errorf("allreduce max = %v, want %v", maxed[0], size-1)
		}
		return nil
	})
}

func TestNATS_SplitFormsDisjointChildren(t *testing.T) {
	// 6 ranks into 2 interleaved groups of 3; each child sums its members'
	// world ranks independently.
	mbxtest.RunWorld(t, 6, func(ctx context.Context, world comm.Comm) error {
		color := world.Rank() % 2
		child, err := world.Split(ctx, color, world.Rank())
		if err != nil {
			return err
		}
		if child == nil {
			return fmt.Errorf("rank %d received no child", world.Rank())
		}
		defer child.Close()

		if child.Size() != 3 {
			return fmt.Errorf("child size = %d, want 3", child.Size())
		}
		if want := world.Rank() / 2; child.Rank() != want {
			return fmt.Errorf("child rank = %d, want %d", child.Rank(), want)
		}

		sum, err := child.AllReduce(ctx, []float64{float64(world.Rank())}, comm.OpSum)
		if err != nil {
			return err
		}
		// Even ranks: 0+2+4=6; odd ranks: 1+3+5=9.
		want := 6.0
		if color == 1 {
			want = 9.0
		}
		if sum[0] != want {
			return fmt.Errorf("child sum = %v, want %v", sum[0], want)
		}
		return nil
	})
}

func TestNATS_SplitUndefinedColor(t *testing.T) {
	// Only even ranks join the child; odd ranks participate in the split
	// but receive no communicator.
	mbxtest.RunWorld(t, 4, func(ctx context.Context, world comm.Comm) error {
		color := comm.ColorUndefined
		if world.Rank()%2 == 0 {
			color = 0
		}
		child, err := world.Split(ctx, color, world.Rank())
		if err != nil {
			return err
		}

		if world.Rank()%2 == 1 {
			if child != nil {
				return fmt.Errorf("undefined color rank got a child")
			}
			return nil
		}

		defer child.Close()
		if child.Size() != 2 {
			return fmt.Errorf("child size = %d, want 2", child.Size())
		}
		sum, err := child.AllReduce(ctx, []float64{1}, comm.OpSum)
		if err != nil {
			return err
		}
		if sum[0] != 2 {
			return fmt.Errorf("child sum = %v, want 2", sum[0])
		}
		return nil
	})
}

func TestNATS_SequentialCollectivesStayOrdered(t *testing.T) {
	// A burst of back-to-back collectives exercises sequence matching: no
	// frame from one operation may satisfy another.
	mbxtest.RunWorld(t, 3, func(ctx context.Context, world comm.Comm) error {
		for round := 0; round < 20; round++ {
			sum, err := world.AllReduce(ctx, []float64{float64(round)}, comm.OpSum)
			if err != nil {
				return err
			}
			if want := float64(round * world.Size()); sum[0] != want {
				return fmt.Errorf("round %d: sum = %v, want %v", round, sum[0], want)
			}
		}
		return nil
	})
}
