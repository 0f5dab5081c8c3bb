package schwarzgo

import (
	"fmt"
	"time"

	"github.com/hupe1980/schwarzgo/coarse"
	"github.com/hupe1980/schwarzgo/internal/floats"
)

// Deflation computes the coarse correction of in into out: the input is
// scaled by the partition of unity, reduced against the deflation
// basis, resolved through the coarse operator and projected back. A nil
// in applies the correction to out in place. Unless the mode is
// ModeAdditive the result is scaled and exchanged, so overlapping
// degrees of freedom agree across neighbors. Excluded processes only
// take part in the coarse solve.
//
// fuse appends that many extra unknowns to the coarse system, copied in
// from and back to out[dof:dof+fuse] around the solve. The call is
// collective and every rank must pass the same fuse.
func (s *Schwarz) Deflation(in, out []float64, fuse int) error {
	if s.co == nil {
		return ErrNoCoarseOperator
	}

	nu := len(s.ev)
	uc := s.ucFor(nu + fuse)
	if fuse > 0 {
		copy(uc[nu:], out[s.sd.dof:s.sd.dof+fuse])
	}

	if s.sd.Excluded() {
		if err := s.coarseSolve(uc, fuse); err != nil {
			return err
		}
	} else {
		if in != nil {
			floats.DiagTo(s.d, in, out)
		} else {
			floats.Diag(s.d, out[:s.sd.dof])
		}
		for k, z := range s.ev {
			uc[k] = floats.Dot(z, out[:s.sd.dof])
		}
		if err := s.coarseSolve(uc, fuse); err != nil {
			return err
		}
		s.upProject(uc[:nu], out[:s.sd.dof])
		if s.mode != ModeAdditive {
			floats.Diag(s.d, out[:s.sd.dof])
			s.exchange(out[:s.sd.dof], 1)
		}
	}

	if fuse > 0 {
		copy(out[s.sd.dof:s.sd.dof+fuse], uc[nu:])
	}

	return nil
}

// DeflationAsync starts the down half of the coarse correction: the
// scaled reduction of in against the basis and the coarse solve,
// running on its own goroutine. The caller must join the handle before
// reading any result and must not touch out or issue another coarse
// solve until then. No back projection, scaling or exchange happens;
// Apply's overlapped-additive branch finishes the correction after the
// join. Fused extras are copied in from out[dof:dof+fuse] but stay in
// the reduced buffer.
func (s *Schwarz) DeflationAsync(in, out []float64, fuse int) *coarse.Handle {
	if s.co == nil {
		return coarse.CompletedHandle(ErrNoCoarseOperator)
	}

	nu := len(s.ev)
	uc := s.ucFor(nu + fuse)
	if fuse > 0 {
		copy(uc[nu:], out[s.sd.dof:s.sd.dof+fuse])
	}

	if !s.sd.Excluded() {
		if in != nil {
			floats.DiagTo(s.d, in, out)
		} else {
			floats.Diag(s.d, out[:s.sd.dof])
		}
		for k, z := range s.ev {
			uc[k] = floats.Dot(z, out[:s.sd.dof])
		}
	}

	return s.co.SolveAsync(uc, fuse)
}

// coarseSolve runs one synchronous coarse solve and records it.
func (s *Schwarz) coarseSolve(uc []float64, fuse int) error {
	start := time.Now()
	if err := s.co.Solve(uc, fuse); err != nil {
		return fmt.Errorf("schwarz: coarse solve: %w", err)
	}
	s.metrics.RecordCoarseSolve(time.Since(start))

	return nil
}
