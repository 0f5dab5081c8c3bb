package schwarzgo

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/schwarzgo/coarse"
	"github.com/hupe1980/schwarzgo/internal/floats"
)

// BuildCoarseOperator assembles the coarse matrix from the deflation
// basis, factorizes it redundantly on every rank and attaches the
// resulting operator. The call is collective; every rank, excluded ones
// included, must call it after SolveGEVP. The coarse dimension is the
// sum of the per-rank basis sizes and stays fixed until rebuilt.
func (s *Schwarz) BuildCoarseOperator(optFns ...func(o *coarse.Options)) (coarse.Operator, error) {
	start := time.Now()

	rows := s.coarseRows()
	op, err := coarse.NewReplicated(s.sd.c, rows, optFns...)
	if err != nil {
		err = fmt.Errorf("schwarz: coarse build: %w", err)
		s.logger.LogCoarseBuild(context.Background(), len(rows), 0, time.Since(start), err)

		return nil, err
	}
	s.co = op

	s.logger.LogCoarseBuild(context.Background(), len(rows), op.Size(), time.Since(start), nil)

	return op, nil
}

// coarseRows computes this rank's rows of the coarse matrix: for every
// global basis column, spread the owner's scaled vector into the
// overlap, push it through the global product and reduce against the
// local basis. Every rank walks the same global column order, so the
// pairwise exchanges inside stay aligned; excluded ranks only take part
// in the size gather.
func (s *Schwarz) coarseRows() [][]float64 {
	sizes := s.sd.c.AllGatherInt(len(s.ev))

	rows := make([][]float64, len(s.ev))
	dim := 0
	for _, sz := range sizes {
		dim += sz
	}
	for k := range rows {
		rows[k] = make([]float64, dim)
	}

	if s.sd.Excluded() {
		return rows
	}

	p := make([]float64, s.sd.dof)
	w := make([]float64, s.sd.dof)

	col := 0
	for r, sz := range sizes {
		for j := 0; j < sz; j++ {
			floats.Fill(p, 0)
			if r == s.sd.c.Rank() {
				floats.DiagTo(s.d, s.ev[j], p)
			}
			s.exchange(p, 1)
			s.GMV(p, w, 1)
			for k := range rows {
				rows[k][col] = floats.WeightedDot(s.d, s.ev[k], w)
			}
			col++
		}
	}

	return rows
}
