package comm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerial_Collectives(t *testing.T) {
	ctx := context.Background()
	world := NewSerial()

	require.Equal(t, 1, world.Size())
	require.Equal(t, 0, world.Rank())

	t.Run("gather returns own payload", func(t *testing.T) {
		out, err := world.Gather(ctx, []byte("only"), 0)
		require.NoError(t, err)
		require.Equal(t, [][]byte{[]byte("only")}, out)
	})

	t.Run("bcast returns own payload", func(t *testing.T) {
		out, err := world.Bcast(ctx, []byte("root"), 0)
		require.NoError(t, err)
		require.Equal(t, []byte("root"), out)
	})

	t.Run("reduce and allreduce are the identity", func(t *testing.T) {
		vec := []float64{1.5, -2, 0}

		out, err := world.Reduce(ctx, vec, OpSum, 0)
		require.NoError(t, err)
		require.Equal(t, vec, out)

		out, err = world.AllReduce(ctx, vec, OpMax)
		require.NoError(t, err)
		require.Equal(t, vec, out)

		// The result is a copy, not an alias.
		out[0] = 99
		require.Equal(t, 1.5, vec[0])
	})

	t.Run("split yields a fresh serial comm", func(t *testing.T) {
		child, err := world.Split(ctx, 7, 0)
		require.NoError(t, err)
		require.NotNil(t, child)
		require.Equal(t, 1, child.Size())

		none, err := world.Split(ctx, ColorUndefined, 0)
		require.NoError(t, err)
		require.Nil(t, none)
	})

	t.Run("rejects nonzero root", func(t *testing.T) {
		_, err := world.Gather(ctx, nil, 1)
		require.ErrorIs(t, err, ErrInvalidRoot)
	})
}

func TestFrameCodec(t *testing.T) {
	frame := encodeFrame(3, 41, []byte("payload"))
	src, seq, payload, ok := decodeFrame(frame)

	require.True(t, ok)
	require.Equal(t, uint32(3), src)
	require.Equal(t, uint32(41), seq)
	require.Equal(t, []byte("payload"), payload)

	_, _, _, ok = decodeFrame([]byte{1, 2, 3})
	require.False(t, ok)
}

func TestFloatCodec(t *testing.T) {
	vec := []float64{0, -1.25, 3e300, 5e-324}
	require.Equal(t, vec, decodeFloats(encodeFloats(vec)))
	require.Empty(t, decodeFloats(nil))
}

func TestCombine(t *testing.T) {
	vecs := [][]float64{{1, 5}, {2, -3}, {4, 0}}

	require.Equal(t, []float64{7, 2}, combine(OpSum, vecs))
	require.Equal(t, []float64{4, 5}, combine(OpMax, vecs))
}
