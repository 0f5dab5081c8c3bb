package eigen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schwarzgo/internal/floats"
	"github.com/hupe1980/schwarzgo/solver"
	"github.com/hupe1980/schwarzgo/sparse"
)

func diagonal(d ...float64) *sparse.CSR {
	n := len(d)
	dense := make([][]float64, n)
	for i := range dense {
		dense[i] = make([]float64, n)
		dense[i][i] = d[i]
	}

	return sparse.FromDense(dense, false)
}

func identity(n int) *sparse.CSR {
	d := make([]float64, n)
	for i := range d {
		d[i] = 1
	}

	return diagonal(d...)
}

func TestSubspace_DiagonalPencil(t *testing.T) {
	a := diagonal(1, 2, 4, 8, 16, 32)
	b := identity(6)

	vecs, err := NewSubspace().Solve(a, b, 3, 1e-10, nil)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	// Smallest eigenvalues first, eigenvectors are coordinate axes.
	for k, v := range vecs {
		assert.InDelta(t, 1.0, math.Abs(v[k]), 1e-6, "vector %d", k)
		for i := range v {
			if i != k {
				assert.InDelta(t, 0.0, v[i], 1e-6, "vector %d component %d", k, i)
			}
		}
	}
}

func TestSubspace_RankDeficientRHS(t *testing.T) {
	a := diagonal(1, 2, 4, 8, 16, 32)
	b := diagonal(1, 1, 0, 0, 0, 0)

	vecs, err := NewSubspace().Solve(a, b, 4, 1e-10, nil)
	require.NoError(t, err)

	// The right-hand side has rank two, so at most two vectors survive.
	assert.Len(t, vecs, 2)
}

func TestSubspace_ZeroRHS(t *testing.T) {
	a := diagonal(1, 2, 3)
	b := diagonal(0, 0, 0)

	vecs, err := NewSubspace().Solve(a, b, 2, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestSubspace_Laplacian(t *testing.T) {
	n := 12
	dense := make([][]float64, n)
	for i := range dense {
		dense[i] = make([]float64, n)
		dense[i][i] = 2
		if i > 0 {
			dense[i][i-1] = -1
		}
		if i < n-1 {
			dense[i][i+1] = -1
		}
	}
	a := sparse.FromDense(dense, false)
	b := identity(n)

	vecs, err := NewSubspace().Solve(a, b, 3, 1e-9, nil)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	ax := make([]float64, n)
	bx := make([]float64, n)
	prev := 0.0
	for k, v := range vecs {
		a.MulVec(v, ax)
		b.MulVec(v, bx)
		lam := floats.Dot(v, ax) / floats.Dot(v, bx)
		assert.Greater(t, lam, prev, "eigenvalues must come out ascending")
		prev = lam

		var res float64
		for i := range ax {
			e := ax[i] - lam*bx[i]
			res += e * e
		}
		assert.Less(t, math.Sqrt(res), 1e-6, "vector %d residual", k)
	}

	// Smallest eigenvalue of the 1D Laplacian.
	want := 2 * (1 - math.Cos(math.Pi/float64(n+1)))
	a.MulVec(vecs[0], ax)
	got := floats.Dot(vecs[0], ax)
	assert.InDelta(t, want, got, 1e-8)
}

type countingSolver struct {
	*solver.DenseLU
	solves int
}

func (c *countingSolver) SolveTo(dst, src []float64, mu int) error {
	c.solves++

	return c.DenseLU.SolveTo(dst, src, mu)
}

func TestSubspace_ReusesAuxiliarySolver(t *testing.T) {
	a := diagonal(1, 2, 4, 8)
	b := identity(4)

	lu := solver.NewDenseLU()
	require.NoError(t, lu.Factorize(a, false))
	aux := &countingSolver{DenseLU: lu}

	vecs, err := NewSubspace().Solve(a, b, 2, 1e-10, aux)
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Positive(t, aux.solves)
}

func TestSubspace_RequestClamping(t *testing.T) {
	a := diagonal(3, 1)
	b := identity(2)

	vecs, err := NewSubspace().Solve(a, b, 10, 0, nil)
	require.NoError(t, err)
	assert.Len(t, vecs, 2)

	vecs, err = NewSubspace().Solve(a, b, 0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}
