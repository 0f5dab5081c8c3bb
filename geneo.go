package schwarzgo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/schwarzgo/internal/floats"
	"github.com/hupe1980/schwarzgo/solver"
	"github.com/hupe1980/schwarzgo/sparse"
)

type overlapEntry struct {
	col int
	val float64
}

// ScaleIntoOverlap scales a by the partition of unity on the overlap
// and zeroes it elsewhere: the result keeps entry (i,j) as d[i]*d[j]*
// a[i,j] when both indices are shared with a neighbor under a weight
// above Eps and the scaled magnitude itself exceeds Eps. The result has
// the dimension and storage kind of a, with all other rows empty; it is
// the right-hand-side operator of the overlap eigenproblem.
func (s *Schwarz) ScaleIntoOverlap(a *sparse.CSR) *sparse.CSR {
	overlap := roaring.New()
	for i, ok := s.sd.iface.NextSet(0); ok; i, ok = s.sd.iface.NextSet(i + 1) {
		if s.d[i] > Eps {
			overlap.Add(uint32(i))
		}
	}

	rowIdx := overlap.ToArray()
	rows := make([][]overlapEntry, len(rowIdx))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)
	for k, r := range rowIdx {
		g.Go(func() error {
			i := int(r)
			kept := make([]overlapEntry, 0, a.RowPtr[i+1]-a.RowPtr[i])
			for j := a.RowPtr[i]; j < a.RowPtr[i+1]; j++ {
				col := a.ColIdx[j]
				v := s.d[i] * s.d[col] * a.Data[j]
				if math.Abs(v) > Eps && overlap.ContainsInt(col) {
					kept = append(kept, overlapEntry{col: col, val: v})
				}
			}
			rows[k] = kept

			return nil
		})
	}
	_ = g.Wait()

	nnz := 0
	for _, row := range rows {
		nnz += len(row)
	}

	out := sparse.New(a.N, nnz, a.Sym)
	nnz = 0
	prev := 0
	for k, r := range rowIdx {
		i := int(r)
		for p := prev; p <= i; p++ {
			out.RowPtr[p] = nnz
		}
		for _, e := range rows[k] {
			out.ColIdx[nnz] = e.col
			out.Data[nnz] = e.val
			nnz++
		}
		prev = i + 1
	}
	for p := prev; p <= a.N; p++ {
		out.RowPtr[p] = nnz
	}

	return out
}

// SolveGEVP computes the deflation basis from the generalized
// eigenproblem a x = lambda b x restricted to this subdomain, keeping
// at most nu vectors. A nil b is replaced by ScaleIntoOverlap(a). When
// a shares the subdomain matrix's sparsity and a factorization exists,
// the local solver doubles as the eigensolver's auxiliary inverse and
// a's index slices are detached afterwards. The achieved count is
// written back to Options.GeneoNu and returned; it may be smaller than
// nu. Basis entries with magnitude below 1/(Eps*Pen) are pruned to
// exactly 0. Excluded processes return 0 immediately.
func (s *Schwarz) SolveGEVP(a, b *sparse.CSR, nu int, threshold float64) (int, error) {
	if s.sd.Excluded() {
		return 0, nil
	}

	start := time.Now()

	free := s.factorized && s.sd.a.SameSparsity(a)
	var aux solver.Local
	if free {
		aux = s.s
	}

	rhs := b
	if rhs == nil {
		rhs = s.ScaleIntoOverlap(a)
	}

	vecs, err := s.opts.EigenSolver.Solve(a, rhs, nu, threshold, aux)
	if err != nil {
		err = fmt.Errorf("schwarz: gevp: %w", err)
		s.logger.LogEigenSolve(context.Background(), nu, 0, time.Since(start), err)

		return 0, err
	}

	if free {
		a.RowPtr, a.ColIdx = nil, nil
	}

	prune := 1 / (Eps * Pen)
	for _, v := range vecs {
		for i, x := range v {
			if math.Abs(x) < prune {
				v[i] = 0
			}
		}
	}

	s.ev = vecs
	s.opts.GeneoNu = len(vecs)

	s.metrics.RecordEigenSolve(nu, len(vecs), time.Since(start))
	s.logger.LogEigenSolve(context.Background(), nu, len(vecs), time.Since(start), nil)

	return len(vecs), nil
}

// upProject overwrites out with the basis image of the reduced vector:
// out = sum_k uc[k] * ev[k].
func (s *Schwarz) upProject(uc, out []float64) {
	floats.Fill(out, 0)
	for k, z := range s.ev {
		floats.Axpy(uc[k], z, out)
	}
}
