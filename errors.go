package schwarzgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/schwarzgo/checkpoint"
	"github.com/hupe1980/schwarzgo/solver"
)

var (
	// ErrNotFactorized is returned when an operation requires a prior
	// call to Factorize.
	ErrNotFactorized = errors.New("schwarz: not factorized")

	// ErrNoSubdomain is returned when a preconditioner is constructed
	// without a subdomain.
	ErrNoSubdomain = errors.New("schwarz: no subdomain")

	// ErrNoCoarseOperator is returned when a deflation is requested
	// before a coarse operator has been attached.
	ErrNoCoarseOperator = errors.New("schwarz: no coarse operator")

	// ErrNotFound is returned when a snapshot does not exist in the
	// backing store.
	ErrNotFound = errors.New("schwarz: not found")
)

// DimensionMismatchError is returned when a vector or basis does not
// match the subdomain dimension.
type DimensionMismatchError struct {
	Expected int
	Actual   int
	cause    error
}

// Error implements the error interface.
func (e *DimensionMismatchError) Error() string {
	msg := fmt.Sprintf("schwarz: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}

	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *DimensionMismatchError) Unwrap() error {
	return e.cause
}

// translateError maps errors from lower layers onto the package
// sentinels so callers match with errors.Is.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, checkpoint.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, solver.ErrNotFactorized):
		return fmt.Errorf("%w: %w", ErrNotFactorized, err)
	default:
		return err
	}
}
