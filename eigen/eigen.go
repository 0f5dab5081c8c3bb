// Package eigen computes the generalized eigenvectors the coarse space
// is built from.
package eigen

import (
	"github.com/hupe1980/schwarzgo/solver"
	"github.com/hupe1980/schwarzgo/sparse"
)

// Solver extracts deflation vectors from a generalized eigenproblem.
type Solver interface {
	// Solve returns up to nu eigenvectors of the pencil (a, b)
	// associated with the smallest eigenvalues of a x = lambda b x.
	// Fewer vectors than requested is a normal outcome, not an error.
	// threshold is the convergence tolerance, non-positive selecting a
	// default. aux, when non-nil, is a ready factorization of a that
	// the solver reuses instead of factorizing a itself.
	Solve(a, b *sparse.CSR, nu int, threshold float64, aux solver.Local) ([][]float64, error)
}
