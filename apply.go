package schwarzgo

import (
	"fmt"
	"time"

	"github.com/hupe1980/schwarzgo/internal/floats"
)

// GMV computes the global matrix-vector product: the local sparse
// product, partition-of-unity scaling, then a halo exchange. in and out
// carry mu consecutive blocks of dof entries and must not alias.
// GMV is shared by Apply's correction branches and ComputeError.
func (s *Schwarz) GMV(in, out []float64, mu int) {
	s.sd.a.MulVec(in, out)
	floats.Diag(s.d, out)
	s.exchange(out, mu)
}

// Apply applies the preconditioner to in, writing the result to out.
// Both vectors have dof entries and must not alias; in is left intact.
// The correction strategy is read from Options.CoarseCorrection on
// every call, and any strategy silently falls back to the single-level
// branch while no coarse operator is attached. The call is collective.
func (s *Schwarz) Apply(in, out []float64) error {
	if !s.factorized {
		return ErrNotFactorized
	}

	start := time.Now()
	if err := s.apply(in, out); err != nil {
		return err
	}
	s.metrics.RecordApply(time.Since(start))

	return nil
}

func (s *Schwarz) apply(in, out []float64) error {
	correction := s.opts.CoarseCorrection
	if correction < CorrectionNone {
		correction = CorrectionNone
	}

	if s.co == nil || correction == CorrectionNone {
		return s.applyOneLevel(in, out)
	}

	if correction == CorrectionAdditive {
		return s.applyAdditive(in, out)
	}

	return s.applyDeflated(in, out, correction)
}

// applyOneLevel is the single-level preconditioner, dispatched on the
// mode. Excluded processes contribute nothing here.
func (s *Schwarz) applyOneLevel(in, out []float64) error {
	dof := s.sd.dof

	switch {
	case s.mode == ModeNone:
		copy(out[:dof], in[:dof])
	case s.sd.Excluded():
	case s.mode == ModeGeneral || s.mode == ModeOptimizedGeneral:
		if err := s.s.SolveTo(out, in, 1); err != nil {
			return fmt.Errorf("schwarz: local solve: %w", err)
		}
		floats.Diag(s.d, out[:dof])
		s.exchange(out[:dof], 1)
	case s.mode == ModeOptimizedSymmetric:
		floats.DiagTo(s.d, in, out)
		if err := s.s.Solve(out[:dof], 1); err != nil {
			return fmt.Errorf("schwarz: local solve: %w", err)
		}
		floats.Diag(s.d, out[:dof])
		s.exchange(out[:dof], 1)
	default: // ModeSymmetric, ModeAdditive, ModeBalanced
		if err := s.s.SolveTo(out, in, 1); err != nil {
			return fmt.Errorf("schwarz: local solve: %w", err)
		}
		s.exchange(out[:dof], 1)
	}

	return nil
}

// applyAdditive overlaps the coarse solve with the local one and adds
// the two corrections. Excluded processes only join the coarse solve.
func (s *Schwarz) applyAdditive(in, out []float64) error {
	start := time.Now()
	dof := s.sd.dof

	copy(s.work, in[:dof])
	h := s.DeflationAsync(in, out, 0)

	if s.sd.Excluded() {
		if err := h.Join(); err != nil {
			return fmt.Errorf("schwarz: coarse solve: %w", err)
		}
		s.metrics.RecordCoarseSolve(time.Since(start))

		return nil
	}

	if err := s.s.Solve(s.work, 1); err != nil {
		_ = h.Join()

		return fmt.Errorf("schwarz: local solve: %w", err)
	}
	if err := h.Join(); err != nil {
		return fmt.Errorf("schwarz: coarse solve: %w", err)
	}
	s.metrics.RecordCoarseSolve(time.Since(start))

	s.upProject(s.uc[:len(s.ev)], out[:dof])
	floats.Axpy(1, s.work, out[:dof])
	floats.Diag(s.d, out[:dof])
	s.exchange(out[:dof], 1)

	return nil
}

// applyDeflated removes the component already captured by the coarse
// space before the local solve and adds the coarse correction back at
// the end. CorrectionBalanced runs one extra projection on the local
// result so the combined operator stays self-adjoint for symmetric
// problems.
func (s *Schwarz) applyDeflated(in, out []float64, correction Correction) error {
	if err := s.Deflation(in, out, 0); err != nil {
		return err
	}
	if s.sd.Excluded() {
		return nil
	}

	dof := s.sd.dof

	copy(s.work, in[:dof])
	s.sd.a.AddMulVec(-1, out[:dof], s.work)
	floats.Diag(s.d, s.work)
	s.exchange(s.work, 1)
	if s.mode == ModeOptimizedSymmetric {
		floats.Diag(s.d, s.work)
	}
	if err := s.s.Solve(s.work, 1); err != nil {
		return fmt.Errorf("schwarz: local solve: %w", err)
	}
	floats.Diag(s.d, s.work)
	s.exchange(s.work, 1)

	if correction == CorrectionBalanced {
		s.GMV(s.work, s.tmp, 1)
		if err := s.Deflation(nil, s.tmp, 0); err != nil {
			return err
		}
		floats.Axpy(-1, s.tmp, s.work)
	}

	floats.Axpy(1, s.work, out[:dof])

	return nil
}
