package coarse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/schwarzgo/comm"
	"github.com/hupe1980/schwarzgo/solver"
	"github.com/hupe1980/schwarzgo/sparse"
)

// E = [2 1; 1 3], one row per rank. For the right-hand side (5, 5) the
// solution is (2, 1).
func buildTwoRankOperator(t *testing.T) (*Replicated, *Replicated) {
	t.Helper()

	cs := comm.NewGroup(2)
	ops := make([]*Replicated, 2)
	rows := [][][]float64{
		{{2, 1}},
		{{1, 3}},
	}

	var g errgroup.Group
	for rank := 0; rank < 2; rank++ {
		g.Go(func() error {
			op, err := NewReplicated(cs[rank], rows[rank])
			ops[rank] = op

			return err
		})
	}
	require.NoError(t, g.Wait())

	return ops[0], ops[1]
}

func TestReplicated_Solve(t *testing.T) {
	op0, op1 := buildTwoRankOperator(t)
	assert.Equal(t, 2, op0.Size())
	assert.Equal(t, 2, op1.Size())

	uc := [][]float64{{5}, {5}}
	ops := []*Replicated{op0, op1}

	var g errgroup.Group
	for rank := 0; rank < 2; rank++ {
		g.Go(func() error {
			return ops[rank].Solve(uc[rank], 0)
		})
	}
	require.NoError(t, g.Wait())

	assert.InDelta(t, 2.0, uc[0][0], 1e-12)
	assert.InDelta(t, 1.0, uc[1][0], 1e-12)
}

func TestReplicated_SolveAsync(t *testing.T) {
	op0, op1 := buildTwoRankOperator(t)

	uc := [][]float64{{5}, {5}}
	ops := []*Replicated{op0, op1}

	var g errgroup.Group
	for rank := 0; rank < 2; rank++ {
		g.Go(func() error {
			h := ops[rank].SolveAsync(uc[rank], 0)
			if err := h.Join(); err != nil {
				return err
			}
			// Join is idempotent.
			return h.Join()
		})
	}
	require.NoError(t, g.Wait())

	assert.InDelta(t, 2.0, uc[0][0], 1e-12)
	assert.InDelta(t, 1.0, uc[1][0], 1e-12)
}

func TestReplicated_ExcludedRank(t *testing.T) {
	cs := comm.NewGroup(3)
	rows := [][][]float64{
		{{2, 1}},
		{{1, 3}},
		nil, // excluded from the decomposition, still part of the solve
	}
	uc := [][]float64{{5}, {5}, nil}

	ops := make([]*Replicated, 3)
	var g errgroup.Group
	for rank := 0; rank < 3; rank++ {
		g.Go(func() error {
			op, err := NewReplicated(cs[rank], rows[rank])
			if err != nil {
				return err
			}
			ops[rank] = op

			return op.Solve(uc[rank], 0)
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 2, ops[2].Size())
	assert.InDelta(t, 2.0, uc[0][0], 1e-12)
	assert.InDelta(t, 1.0, uc[1][0], 1e-12)
}

func TestReplicated_FusedTail(t *testing.T) {
	t.Run("pass through", func(t *testing.T) {
		op0, op1 := buildTwoRankOperator(t)

		uc := [][]float64{{5, 1, 2}, {5, 10, 20}}
		ops := []*Replicated{op0, op1}

		var g errgroup.Group
		for rank := 0; rank < 2; rank++ {
			g.Go(func() error {
				return ops[rank].Solve(uc[rank], 2)
			})
		}
		require.NoError(t, g.Wait())

		// Fused entries are sum-reduced on every rank.
		for rank := 0; rank < 2; rank++ {
			assert.InDelta(t, 11.0, uc[rank][1], 1e-12, "rank %d", rank)
			assert.InDelta(t, 22.0, uc[rank][2], 1e-12, "rank %d", rank)
		}
	})

	t.Run("secondary solve", func(t *testing.T) {
		fused := solver.NewDenseLU()
		require.NoError(t, fused.Factorize(sparse.FromDense([][]float64{
			{2, 0},
			{0, 4},
		}, false), false))

		cs := comm.NewGroup(2)
		rows := [][][]float64{
			{{2, 1}},
			{{1, 3}},
		}
		uc := [][]float64{{5, 1, 2}, {5, 10, 20}}

		ops := make([]*Replicated, 2)
		var g errgroup.Group
		for rank := 0; rank < 2; rank++ {
			g.Go(func() error {
				op, err := NewReplicated(cs[rank], rows[rank], func(o *Options) {
					o.Fused = fused
				})
				if err != nil {
					return err
				}
				ops[rank] = op

				return op.Solve(uc[rank], 2)
			})
		}
		require.NoError(t, g.Wait())

		for rank := 0; rank < 2; rank++ {
			assert.InDelta(t, 5.5, uc[rank][1], 1e-12, "rank %d", rank)
			assert.InDelta(t, 5.5, uc[rank][2], 1e-12, "rank %d", rank)
		}
	})
}

func TestReplicated_EmptyCoarseSpace(t *testing.T) {
	cs := comm.NewGroup(2)
	uc := [][]float64{{3}, {4}}

	var g errgroup.Group
	for rank := 0; rank < 2; rank++ {
		g.Go(func() error {
			op, err := NewReplicated(cs[rank], nil)
			if err != nil {
				return err
			}
			if op.Size() != 0 {
				return assert.AnError
			}

			return op.Solve(uc[rank], 1)
		})
	}
	require.NoError(t, g.Wait())

	// Only the fused reduction ran.
	assert.InDelta(t, 7.0, uc[0][0], 1e-12)
	assert.InDelta(t, 7.0, uc[1][0], 1e-12)
}

func TestReplicated_RowWidthMismatch(t *testing.T) {
	cs := comm.NewGroup(1)

	_, err := NewReplicated(cs[0], [][]float64{{1, 2}})
	assert.Error(t, err)
}
