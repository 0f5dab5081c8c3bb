package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func laplacian1D(n int, sym bool) *CSR {
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		a[i][i] = 2
		if i > 0 {
			a[i][i-1] = -1
		}
		if i < n-1 {
			a[i][i+1] = -1
		}
	}

	return FromDense(a, sym)
}

func TestFromDense(t *testing.T) {
	t.Run("general", func(t *testing.T) {
		m := laplacian1D(3, false)
		assert.Equal(t, 3, m.N)
		assert.Equal(t, []int{0, 2, 5, 7}, m.RowPtr)
		assert.Equal(t, []int{0, 1, 0, 1, 2, 1, 2}, m.ColIdx)
		assert.Equal(t, []float64{2, -1, -1, 2, -1, -1, 2}, m.Data)
	})

	t.Run("symmetric keeps lower triangle with trailing diagonal", func(t *testing.T) {
		m := laplacian1D(3, true)
		assert.Equal(t, []int{0, 1, 3, 5}, m.RowPtr)
		assert.Equal(t, []int{0, 0, 1, 1, 2}, m.ColIdx)
		assert.Equal(t, []float64{2, -1, 2, -1, 2}, m.Data)
	})

	t.Run("zero diagonal is stored", func(t *testing.T) {
		m := FromDense([][]float64{{0, 1}, {1, 0}}, false)
		assert.Equal(t, 4, m.NNZ())
	})
}

func TestMulVec(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	general := laplacian1D(4, false)
	symmetric := laplacian1D(4, true)

	want := []float64{0, 0, 0, 5}

	out := make([]float64, 4)
	general.MulVec(x, out)
	assert.InDeltaSlice(t, want, out, 1e-15)

	out2 := make([]float64, 4)
	symmetric.MulVec(x, out2)
	assert.InDeltaSlice(t, want, out2, 1e-15, "symmetric storage must produce the full product")
}

func TestMulVecBlocked(t *testing.T) {
	m := laplacian1D(2, false)
	in := []float64{1, 0, 0, 1}
	out := make([]float64, 4)
	m.MulVec(in, out)
	assert.InDeltaSlice(t, []float64{2, -1, -1, 2}, out, 1e-15)
}

func TestAddMulVec(t *testing.T) {
	m := laplacian1D(3, true)
	x := []float64{1, 1, 1}
	y := []float64{10, 10, 10}
	m.AddMulVec(-1, x, y)
	assert.InDeltaSlice(t, []float64{9, 10, 9}, y, 1e-15)
}

func TestSameSparsity(t *testing.T) {
	a := laplacian1D(4, false)
	b := laplacian1D(4, false)
	require.True(t, a.SameSparsity(b))

	t.Run("aliased index slices", func(t *testing.T) {
		c := &CSR{N: a.N, RowPtr: a.RowPtr, ColIdx: a.ColIdx, Data: append([]float64(nil), a.Data...)}
		assert.True(t, a.SameSparsity(c))
	})

	t.Run("different pattern", func(t *testing.T) {
		d := FromDense([][]float64{
			{2, 0, 0, 0},
			{0, 2, 0, 0},
			{0, 0, 2, 0},
			{0, 0, 0, 2},
		}, false)
		assert.False(t, a.SameSparsity(d))
	})

	t.Run("storage kind differs", func(t *testing.T) {
		assert.False(t, a.SameSparsity(laplacian1D(4, true)))
	})

	t.Run("nil", func(t *testing.T) {
		assert.False(t, a.SameSparsity(nil))
	})
}
