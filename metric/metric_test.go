package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{1, 1, -2}, -4},
		{"Empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Dot(tt.a, tt.b), 1e-5)
		})
	}
}

func TestSquaredL2(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		d, err := SquaredL2([]float32{1, 2, 3}, []float32{4, 5, 6})
		require.NoError(t, err)
		assert.InDelta(t, 27.0, d, 1e-5)
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		_, err := SquaredL2([]float32{1, 2}, []float32{1, 2, 3})
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("Identical", func(t *testing.T) {
		s, err := CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, s, 1e-5)
	})

	t.Run("Orthogonal", func(t *testing.T) {
		s, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, s, 1e-5)
	})

	t.Run("ZeroVector", func(t *testing.T) {
		s, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
		require.NoError(t, err)
		assert.Equal(t, float32(0), s)
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("UnitNorm", func(t *testing.T) {
		vectors := [][]float32{
			{3, 4},
			{1, 1, 1, 1},
			{-2, 0.5, 7, -0.25},
			{1e-3, 2e-3},
		}

		for _, v := range vectors {
			n, ok := Normalize(v)
			require.True(t, ok)
			require.Len(t, n, len(v))
			assert.InDelta(t, 1.0, float64(Magnitude(n)), 1e-6)

			// Direction is preserved: n == v / ||v|| componentwise.
			mag := Magnitude(v)
			for i := range v {
				assert.InDelta(t, float64(v[i]/mag), float64(n[i]), 1e-6)
			}
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		v := []float32{0.3, -1.2, 4.5}
		n1, ok := Normalize(v)
		require.True(t, ok)
		n2, ok := Normalize(n1)
		require.True(t, ok)

		for i := range n1 {
			assert.InDelta(t, float64(n1[i]), float64(n2[i]), 1e-6)
		}
	})

	t.Run("ZeroVector", func(t *testing.T) {
		zeros := make([]float32, 8)
		n, ok := Normalize(zeros)
		assert.False(t, ok)
		assert.Equal(t, zeros, n)
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		v := []float32{3, 4}
		_, ok := Normalize(v)
		require.True(t, ok)
		assert.Equal(t, []float32{3, 4}, v)
	})

	t.Run("NoNaN", func(t *testing.T) {
		n, _ := Normalize([]float32{0, 0, 0})
		for _, x := range n {
			assert.False(t, math.IsNaN(float64(x)))
		}
	})
}
