package schwarzgo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schwarzgo/comm"
	"github.com/hupe1980/schwarzgo/sparse"
)

func TestComputeError_PlainNorms(t *testing.T) {
	// tridiag(-1, 2, -1) has no boundary or penalty rows, so both norms
	// are plain weighted Euclidean norms. Symmetric storage must agree
	// with the general one.
	x := []float64{1, 2, 3}
	f := []float64{1, 1, 1}

	for name, sym := range map[string]bool{"general": false, "symmetric": true} {
		t.Run(name, func(t *testing.T) {
			s := singleRank(t, sparse.FromDense(laplacian1D(3), sym))

			norms := s.ComputeError(x, f, 1)
			require.Len(t, norms, 2)
			assert.InDelta(t, math.Sqrt(3), norms[0], 1e-12)
			assert.InDelta(t, math.Sqrt(11), norms[1], 1e-12)
		})
	}
}

func TestComputeError_WeightedByScaling(t *testing.T) {
	s := singleRank(t, sparse.FromDense([][]float64{{2, 0}, {0, 4}}, false))
	require.NoError(t, s.SetScaling([]float64{0.5, 0.25}))

	// The weighted product cancels f exactly, leaving only the scaled
	// right-hand-side norm.
	norms := s.ComputeError([]float64{1, 1}, []float64{1, 1}, 1)
	assert.InDelta(t, math.Sqrt(0.75), norms[0], 1e-12)
	assert.Zero(t, norms[1])
}

func TestComputeError_PenaltyRowSkipped(t *testing.T) {
	// A diagonal above Eps*Pen marks a penalized Dirichlet row; neither
	// its residual nor its right-hand side may enter the norms.
	s := singleRank(t, sparse.FromDense([][]float64{{1e31, 0}, {0, 2}}, false))

	norms := s.ComputeError([]float64{0, 1}, []float64{5, 3}, 1)
	assert.InDelta(t, 3.0, norms[0], 1e-12)
	assert.InDelta(t, 1.0, norms[1], 1e-12)
}

func TestComputeError_DirichletRowOutOfResidual(t *testing.T) {
	// A unit diagonal with vanishing off-diagonals is a plain Dirichlet
	// row: its right-hand side counts, its residual does not.
	a := [][]float64{
		{1, 0, 0},
		{0, 2, -1},
		{0, -1, 2},
	}
	s := singleRank(t, sparse.FromDense(a, false))

	norms := s.ComputeError([]float64{7, 1, 1}, []float64{4, 1, 1}, 1)
	assert.InDelta(t, math.Sqrt(18), norms[0], 1e-12)
	assert.Zero(t, norms[1])
}

func TestComputeError_PenalizedRHSRescaled(t *testing.T) {
	// Right-hand-side entries above Eps*Pen carry a penalty factor and
	// enter the norm as f/Pen. The residual keeps the raw value.
	s := singleRank(t, sparse.FromDense([][]float64{{2, 0}, {0, 2}}, false))

	norms := s.ComputeError([]float64{0, 0}, []float64{3e18, 4}, 1)
	assert.InDelta(t, 4.0, norms[0], 1e-9)
	assert.InEpsilon(t, 3e18, norms[1], 1e-9)
}

func TestComputeError_MultipleRightHandSides(t *testing.T) {
	// Two stacked systems come back interleaved as
	// (rhs0, res0, rhs1, res1).
	s := singleRank(t, sparse.FromDense([][]float64{{2, 0}, {0, 4}}, false))

	x := []float64{1, 1, 1, 0}
	f := []float64{0, 0, 8, 8}
	norms := s.ComputeError(x, f, 2)

	require.Len(t, norms, 4)
	assert.Zero(t, norms[0])
	assert.InDelta(t, math.Sqrt(20), norms[1], 1e-12)
	assert.InDelta(t, math.Sqrt(128), norms[2], 1e-12)
	assert.InDelta(t, 10.0, norms[3], 1e-12)
}

func TestComputeError_ExcludedContributesZeros(t *testing.T) {
	cs := comm.NewGroup(2)
	norms := make([][]float64, 2)

	runRanks(t, 2, func(rank int) error {
		var a *sparse.CSR
		if rank == 0 {
			a = sparse.FromDense([][]float64{{2}}, false)
		}
		sd, err := NewSubdomain(cs[rank], a, nil)
		if err != nil {
			return err
		}
		s, err := New(sd)
		if err != nil {
			return err
		}

		if rank == 0 {
			norms[rank] = s.ComputeError([]float64{3}, []float64{2}, 1)
		} else {
			norms[rank] = s.ComputeError(nil, nil, 1)
		}

		return nil
	})

	for rank := 0; rank < 2; rank++ {
		assert.InDelta(t, 2.0, norms[rank][0], 1e-12, "rank %d", rank)
		assert.InDelta(t, 4.0, norms[rank][1], 1e-12, "rank %d", rank)
	}
}
