// Package solver provides the subdomain solve capability the
// preconditioner is parameterized over.
package solver

import (
	"errors"

	"github.com/hupe1980/schwarzgo/sparse"
)

var (
	// ErrSingular is returned when factorization meets a null pivot
	// and pivot detection is off.
	ErrSingular = errors.New("solver: matrix is singular")

	// ErrNotFactorized is returned when Solve is called before a
	// successful Factorize.
	ErrNotFactorized = errors.New("solver: not factorized")
)

// Local is a factorized solver for one subdomain problem.
//
// Solve and SolveTo treat vectors longer than the matrix dimension as
// consecutive blocks, one per right-hand side.
type Local interface {
	// Factorize computes a factorization of a. With detect set, null
	// pivots do not fail the factorization; they are replaced by a
	// penalty so the corresponding solution entries vanish.
	Factorize(a *sparse.CSR, detect bool) error

	// Solve overwrites the mu right-hand sides in x with the solutions.
	Solve(x []float64, mu int) error

	// SolveTo solves the mu right-hand sides in src into dst, leaving
	// src untouched.
	SolveTo(dst, src []float64, mu int) error
}
