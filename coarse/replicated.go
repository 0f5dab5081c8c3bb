package coarse

import (
	"fmt"

	"github.com/hupe1980/schwarzgo/comm"
	"github.com/hupe1980/schwarzgo/solver"
	"github.com/hupe1980/schwarzgo/sparse"
)

// Options holds configuration for the replicated operator.
type Options struct {
	// Fused, when non-nil, is a ready factorization applied to the
	// sum-reduced fused entries. When nil they pass through unchanged.
	Fused solver.Local
}

// Replicated assembles the coarse matrix on every rank and factorizes
// it redundantly, so a coarse solve is one gather plus a local dense
// solve and needs no dedicated master process.
type Replicated struct {
	c      *comm.Comm
	lu     *solver.DenseLU
	n      int // local block size
	offset int // global offset of the local block
	dim    int // global coarse dimension
	fused  solver.Local
}

// NewReplicated builds the coarse operator from this rank's rows of the
// coarse matrix. Each row must span the full coarse dimension, ordered
// by rank blocks. The call is collective; ranks that contribute no rows
// (excluded from the decomposition) pass an empty slice. The operator
// duplicates the communicator so in-flight coarse collectives cannot
// collide with subdomain exchanges.
func NewReplicated(c *comm.Comm, rows [][]float64, optFns ...func(o *Options)) (*Replicated, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	dc := c.Dup()
	sizes := dc.AllGatherInt(len(rows))

	dim := 0
	offset := 0
	for r, sz := range sizes {
		if r < dc.Rank() {
			offset += sz
		}
		dim += sz
	}

	flat := make([]float64, 0, len(rows)*dim)
	for _, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("coarse: row length %d does not match coarse dimension %d", len(row), dim)
		}
		flat = append(flat, row...)
	}
	all := dc.AllGatherv(flat)

	op := &Replicated{
		c:      dc,
		n:      len(rows),
		offset: offset,
		dim:    dim,
		fused:  opts.Fused,
	}
	if dim > 0 {
		dense := make([][]float64, dim)
		for i := range dense {
			dense[i] = all[i*dim : (i+1)*dim]
		}
		op.lu = solver.NewDenseLU()
		if err := op.lu.Factorize(sparse.FromDense(dense, false), false); err != nil {
			return nil, err
		}
	}

	return op, nil
}

// Size implements Operator.
func (r *Replicated) Size() int { return r.dim }

// Solve implements Operator. Not safe for concurrent use; join any
// outstanding async solve first.
func (r *Replicated) Solve(uc []float64, fuse int) error {
	g := r.c.AllGatherv(uc[:r.n])
	if r.dim > 0 {
		if err := r.lu.Solve(g, 1); err != nil {
			return err
		}
		copy(uc[:r.n], g[r.offset:r.offset+r.n])
	}
	if fuse > 0 {
		tail := uc[r.n : r.n+fuse]
		r.c.AllReduceSum(tail)
		if r.fused != nil {
			if err := r.fused.Solve(tail, 1); err != nil {
				return err
			}
		}
	}

	return nil
}

// SolveAsync implements Operator.
func (r *Replicated) SolveAsync(uc []float64, fuse int) *Handle {
	return Go(func() error {
		return r.Solve(uc, fuse)
	})
}
