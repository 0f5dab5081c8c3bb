// Package coarse provides the second level of the preconditioner: a
// small operator assembled from the deflation basis and solved
// redundantly on every rank.
package coarse

// Operator solves the reduced coarse problem.
//
// Solve and SolveAsync are collective. uc carries the local block of
// coarse unknowns followed by fuse fused entries; both halves are
// overwritten with the respective solutions. Fused entries ride along
// with the coarse collective: they are sum-reduced across ranks and
// passed through an optional secondary solve.
type Operator interface {
	// Size returns the global coarse dimension.
	Size() int

	// Solve solves the coarse problem in place.
	Solve(uc []float64, fuse int) error

	// SolveAsync starts the solve on its own goroutine and returns a
	// handle the caller must join before reading uc. At most one solve
	// may be in flight per operator.
	SolveAsync(uc []float64, fuse int) *Handle
}

// Handle tracks one in-flight coarse solve.
type Handle struct {
	done chan struct{}
	err  error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func (h *Handle) complete(err error) {
	h.err = err
	close(h.done)
}

// CompletedHandle returns a handle that already carries err. Used when
// a solve fails before any work is started.
func CompletedHandle(err error) *Handle {
	h := newHandle()
	h.complete(err)

	return h
}

// Go runs fn on its own goroutine and returns the handle tracking it.
// Operator implementations use it to satisfy SolveAsync.
func Go(fn func() error) *Handle {
	h := newHandle()
	go func() {
		h.complete(fn())
	}()

	return h
}

// Join blocks until the solve finishes and returns its error. Join may
// be called multiple times.
func (h *Handle) Join() error {
	<-h.done

	return h.err
}

// Done returns a channel that is closed when the solve finishes.
func (h *Handle) Done() <-chan struct{} { return h.done }
