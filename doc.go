// Package schwarzgo provides a two-level overlapping Schwarz
// preconditioner for distributed sparse linear systems.
//
// Each process owns one overlapping subdomain of a global problem and
// wraps it in a Schwarz instance. An outer iterative solver calls Apply
// once per iteration; neighbor halo exchanges and the optional coarse
// solve keep the subdomains consistent. All distributed operations are
// collective, so every rank of the process group must call the same
// methods in the same order.
//
// # Quick Start
//
// One subdomain per process, restricted additive Schwarz:
//
//	sd, _ := schwarzgo.NewSubdomain(c, a, neighbors)
//	s, _ := schwarzgo.New(sd)
//	s.Factorize(nil)
//
//	d := make([]float64, sd.DOF())
//	for i := range d {
//		d[i] = 1
//	}
//	s.MultiplicityScaling(d)
//	s.SetScaling(d)
//
//	// Inside the outer Krylov or Richardson loop:
//	s.Apply(r, z)
//
// # Two-Level Method
//
// A spectral coarse space removes the slow modes the one-level method
// cannot damp. SolveGEVP extracts the local deflation basis from the
// generalized eigenproblem against the overlap operator,
// BuildCoarseOperator assembles and redundantly factorizes the coarse
// matrix, and the correction strategy is picked per Apply call:
//
//	s, _ := schwarzgo.New(sd,
//		schwarzgo.WithCoarseCorrection(schwarzgo.CorrectionDeflated),
//		schwarzgo.WithGeneoNu(20),
//	)
//	s.Factorize(nil)
//	s.SolveGEVP(a, nil, 20, 0)
//	s.BuildCoarseOperator()
//
// CorrectionDeflated removes the coarse component before the local
// solve, CorrectionBalanced adds a projection keeping the combined
// operator self-adjoint, and CorrectionAdditive overlaps the coarse
// solve with the local one.
//
// # Variants
//
// WithMethod selects the Schwarz flavor: MethodRAS (restricted
// additive, the default), MethodASM (additive), and the optimized
// variants MethodORAS, MethodSORAS and MethodOSM, which solve an
// externally supplied operator passed to Factorize. Processes holding
// no subdomain participate as excluded ranks: they join every
// collective and contribute only to the coarse solve.
//
// # Setup Snapshots
//
// The expensive part of the setup is the eigensolve. SaveSetup persists
// the partition of unity and the deflation basis to a checkpoint.Store
// (in-memory, local disk, S3 or MinIO); LoadSetup restores them so a
// restarted job only refactorizes:
//
//	store, _ := checkpoint.NewLocalStore("/var/lib/schwarz")
//	s.SaveSetup(ctx, store, fmt.Sprintf("rank-%d.swz", rank))
//
//	// After restart:
//	s.LoadSetup(ctx, store, fmt.Sprintf("rank-%d.swz", rank))
//	s.Factorize(nil)
//	s.BuildCoarseOperator()
//
// # Key Features
//
//   - Restricted, additive and optimized Schwarz variants
//   - GenEO-style spectral coarse spaces with pluggable eigensolvers
//   - Deflated, balanced and overlapped-additive coarse corrections
//   - Excluded-process support for undersubscribed runs
//   - Compressed setup snapshots on local, S3 or MinIO storage
//   - Structured logging via log/slog and pluggable metrics
package schwarzgo
