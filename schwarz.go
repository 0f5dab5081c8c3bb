package schwarzgo

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/schwarzgo/coarse"
	"github.com/hupe1980/schwarzgo/eigen"
	"github.com/hupe1980/schwarzgo/internal/floats"
	"github.com/hupe1980/schwarzgo/solver"
	"github.com/hupe1980/schwarzgo/sparse"
)

// Numerical thresholds shared by every correction path. Magnitudes
// below Eps count as zero; diagonal magnitudes above Eps*Pen mark
// penalty (Dirichlet) rows.
const (
	Eps = 1.0e-12
	Pen = 1.0e+30
)

// Mode is the preconditioner variant selected at factorization time.
// It fixes how the partition of unity brackets the local solve and
// never changes mid-solve.
type Mode uint8

const (
	// ModeNone passes the input through unchanged.
	ModeNone Mode = iota
	// ModeSymmetric solves locally and exchanges, without scaling.
	ModeSymmetric
	// ModeGeneral solves locally, scales, exchanges.
	ModeGeneral
	// ModeOptimizedSymmetric solves an externally supplied operator
	// with scaling on both sides of the solve.
	ModeOptimizedSymmetric
	// ModeOptimizedGeneral solves an externally supplied operator,
	// scales, exchanges.
	ModeOptimizedGeneral
	// ModeAdditive adds the coarse and local corrections; the coarse
	// term skips its final exchange because the combined vector is
	// exchanged once at the end.
	ModeAdditive
	// ModeBalanced marks the symmetrized deflated variant.
	ModeBalanced
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSymmetric:
		return "symmetric"
	case ModeGeneral:
		return "general"
	case ModeOptimizedSymmetric:
		return "optimized symmetric"
	case ModeOptimizedGeneral:
		return "optimized general"
	case ModeAdditive:
		return "additive"
	case ModeBalanced:
		return "balanced"
	default:
		return "unknown"
	}
}

// Schwarz is a two-level overlapping Schwarz preconditioner over one
// subdomain of a distributed sparse system. An outer iterative solver
// calls Apply once per iteration; every distributed operation is
// collective across the process group, so all ranks must call the same
// methods in the same order.
//
// Not safe for concurrent use: exchange buffers and scratch vectors are
// reused across calls.
type Schwarz struct {
	sd      *Subdomain
	opts    Options
	logger  *Logger
	metrics MetricsCollector

	mode       Mode
	s          solver.Local
	factorized bool

	d  []float64       // partition of unity
	ev [][]float64     // deflation basis
	co coarse.Operator // nil until a coarse operator is attached

	uc   []float64 // reduced coarse vector, grown on demand
	work []float64
	tmp  []float64
}

// New creates a preconditioner over the given subdomain. The scaling
// defaults to all ones until MultiplicityScaling or SetScaling replaces
// it.
func New(sd *Subdomain, optFns ...Option) (*Schwarz, error) {
	if sd == nil {
		return nil, ErrNoSubdomain
	}

	opts := applyOptions(optFns)

	s := &Schwarz{
		sd:      sd,
		opts:    opts,
		logger:  opts.Logger.WithRank(sd.Comm().Rank()),
		metrics: opts.Metrics,
		d:       make([]float64, sd.DOF()),
		work:    make([]float64, sd.DOF()),
		tmp:     make([]float64, sd.DOF()),
	}
	floats.Fill(s.d, 1)

	s.s = opts.LocalSolver
	if s.s == nil {
		s.s = solver.NewDenseLU()
	}
	if s.opts.EigenSolver == nil {
		s.opts.EigenSolver = eigen.NewSubspace()
	}

	return s, nil
}

// Factorize selects the preconditioner mode and factorizes the local
// problem. a, when non-nil, is an externally supplied operator solved
// by the optimized variants in place of the subdomain matrix. Excluded
// processes select a mode but hold no factorization.
func (s *Schwarz) Factorize(a *sparse.CSR) error {
	start := time.Now()

	var mode Mode
	if a != nil {
		if s.opts.Method == MethodSORAS {
			mode = ModeOptimizedSymmetric
		} else {
			mode = ModeOptimizedGeneral
		}
	} else {
		switch s.opts.Method {
		case MethodASM:
			mode = ModeSymmetric
		case MethodNone:
			mode = ModeNone
		default:
			mode = ModeGeneral
			s.opts.Method = MethodRAS
		}
	}

	target := s.sd.a
	if a != nil {
		target = a
	}
	detect := mode == ModeOptimizedSymmetric

	s.mode = mode
	if s.opts.CoarseCorrection == CorrectionAdditive && mode != ModeNone {
		s.mode = ModeAdditive
	}

	if s.sd.Excluded() {
		s.factorized = true
		s.logger.LogFactorize(context.Background(), s.mode, 0, time.Since(start), nil)

		return nil
	}

	if err := s.s.Factorize(target, detect); err != nil {
		err = fmt.Errorf("schwarz: factorize: %w", err)
		s.logger.LogFactorize(context.Background(), s.mode, s.sd.dof, time.Since(start), err)

		return err
	}
	s.factorized = true

	s.metrics.RecordFactorize(time.Since(start))
	s.logger.LogFactorize(context.Background(), s.mode, s.sd.dof, time.Since(start), nil)

	return nil
}

// SetMatrix replaces the subdomain matrix. An existing factorization is
// redone on the new matrix.
func (s *Schwarz) SetMatrix(a *sparse.CSR) error {
	if a == nil {
		return ErrNoSubdomain
	}
	if a.N != s.sd.dof {
		return &DimensionMismatchError{Expected: s.sd.dof, Actual: a.N}
	}

	s.sd.a = a
	if !s.factorized {
		return nil
	}

	start := time.Now()
	if err := s.s.Factorize(a, false); err != nil {
		return fmt.Errorf("schwarz: refactorize: %w", err)
	}
	s.metrics.RecordFactorize(time.Since(start))

	return nil
}

// Mode returns the variant selected by the last Factorize call.
func (s *Schwarz) Mode() Mode { return s.mode }

// Subdomain returns the underlying subdomain.
func (s *Schwarz) Subdomain() *Subdomain { return s.sd }

// Excluded reports whether this process holds no subdomain.
func (s *Schwarz) Excluded() bool { return s.sd.Excluded() }

// Options returns the live configuration. CoarseCorrection takes effect
// on the next Apply call; the setup fields are read when the respective
// setup step runs.
func (s *Schwarz) Options() *Options { return &s.opts }

// Scaling returns the partition-of-unity weights. The slice is live;
// callers must treat it as read-only.
func (s *Schwarz) Scaling() []float64 { return s.d }

// SetScaling adopts d as the partition of unity.
func (s *Schwarz) SetScaling(d []float64) error {
	if len(d) != s.sd.dof {
		return &DimensionMismatchError{Expected: s.sd.dof, Actual: len(d)}
	}
	s.d = d

	return nil
}

// Basis returns the deflation basis, nil before SolveGEVP.
func (s *Schwarz) Basis() [][]float64 { return s.ev }

// SetDeflationBasis adopts ev as the deflation basis, replacing any
// basis computed by SolveGEVP. Options.GeneoNu is updated to match.
func (s *Schwarz) SetDeflationBasis(ev [][]float64) error {
	for _, v := range ev {
		if len(v) != s.sd.dof {
			return &DimensionMismatchError{Expected: s.sd.dof, Actual: len(v)}
		}
	}
	s.ev = ev
	s.opts.GeneoNu = len(ev)

	return nil
}

// CoarseOperator returns the attached coarse operator, nil when the
// preconditioner runs single-level.
func (s *Schwarz) CoarseOperator() coarse.Operator { return s.co }

// SetCoarseOperator attaches a coarse operator. Apply falls back to the
// single-level branch while none is attached.
func (s *Schwarz) SetCoarseOperator(co coarse.Operator) {
	s.co = co
}

// ucFor returns the reduced coarse buffer resized to n entries.
func (s *Schwarz) ucFor(n int) []float64 {
	if cap(s.uc) < n {
		s.uc = make([]float64, n)
	}

	return s.uc[:n]
}

// exchange runs a halo exchange and records its volume.
func (s *Schwarz) exchange(v []float64, mu int) {
	s.sd.Exchange(v, mu)
	s.metrics.RecordExchange(s.sd.shared * mu)
}
