package eigen

import (
	"math"
	"math/rand"

	"github.com/hupe1980/schwarzgo/internal/floats"
	"github.com/hupe1980/schwarzgo/solver"
	"github.com/hupe1980/schwarzgo/sparse"
)

// defaultTol is the convergence tolerance used when the caller passes
// a non-positive threshold.
const defaultTol = 1.0e-8

// Options holds configuration for the subspace iteration.
type Options struct {
	// MaxIter bounds the number of iterations. Vectors that have not
	// converged by then are not returned.
	MaxIter int

	// DropTol is the relative norm below which a column is considered
	// linearly dependent and removed from the block.
	DropTol float64

	// Seed makes the starting block reproducible.
	Seed int64
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		MaxIter: 256,
		DropTol: 1.0e-10,
		Seed:    1,
	}
}

// Subspace solves the pencil by block inverse subspace iteration. The
// smallest eigenvalues of a x = lambda b x are the dominant ones of
// inv(a) b, so each sweep multiplies the block by b, applies the
// factorized solve of a and re-orthonormalizes.
type Subspace struct {
	opts Options
}

// NewSubspace creates a new subspace iteration eigensolver.
func NewSubspace(optFns ...func(o *Options)) *Subspace {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Subspace{opts: opts}
}

// Solve implements Solver.
func (s *Subspace) Solve(a, b *sparse.CSR, nu int, threshold float64, aux solver.Local) ([][]float64, error) {
	n := a.N
	if nu > n {
		nu = n
	}
	if n == 0 || nu <= 0 {
		return nil, nil
	}

	tol := threshold
	if tol <= 0 {
		tol = defaultTol
	}

	inv := aux
	if inv == nil {
		lu := solver.NewDenseLU()
		if err := lu.Factorize(a, false); err != nil {
			return nil, err
		}
		inv = lu
	}

	// Two blocks, swapped every sweep so the kept columns of one never
	// alias the scratch columns of the other.
	cur := newBlock(nu, n)
	nxt := newBlock(nu, n)

	rng := rand.New(rand.NewSource(s.opts.Seed))
	for _, v := range cur {
		for i := range v {
			v[i] = 2*rng.Float64() - 1
		}
	}
	x := orthonormalize(cur, s.opts.DropTol)

	t := make([]float64, n)
	ax := make([]float64, n)
	bx := make([]float64, n)

	for iter := 0; iter < s.opts.MaxIter; iter++ {
		if len(x) == 0 {
			return nil, nil
		}
		y := nxt[:len(x)]
		for k, xk := range x {
			b.MulVec(xk, t)
			if err := inv.SolveTo(y[k], t, 1); err != nil {
				return nil, err
			}
		}
		x = orthonormalize(y, s.opts.DropTol)
		cur, nxt = nxt, cur

		if s.convergedPrefix(a, b, x, ax, bx, tol) == len(x) {
			break
		}
	}

	m := s.convergedPrefix(a, b, x, ax, bx, tol)
	out := make([][]float64, m)
	copy(out, x[:m])

	return out, nil
}

// convergedPrefix counts the leading vectors whose pencil residual is
// below tol. Dominance ordering means trailing vectors converge last.
func (s *Subspace) convergedPrefix(a, b *sparse.CSR, x [][]float64, ax, bx []float64, tol float64) int {
	for k, xk := range x {
		a.MulVec(xk, ax)
		b.MulVec(xk, bx)
		den := floats.Dot(xk, bx)
		if math.Abs(den) < math.SmallestNonzeroFloat64 {
			return k
		}
		lam := floats.Dot(xk, ax) / den
		var res float64
		for i := range ax {
			e := ax[i] - lam*bx[i]
			res += e * e
		}
		scale := math.Sqrt(floats.Dot(ax, ax)) + math.Abs(lam)*math.Sqrt(floats.Dot(bx, bx))
		if scale == 0 || math.Sqrt(res) > tol*scale {
			return k
		}
	}

	return len(x)
}

func newBlock(nu, n int) [][]float64 {
	block := make([][]float64, nu)
	for k := range block {
		block[k] = make([]float64, n)
	}

	return block
}

// orthonormalize runs modified Gram-Schmidt over the block in place and
// returns the surviving columns. Columns whose norm collapses below
// dropTol times their starting norm are removed, which is how rank
// deficiency of the right-hand side shrinks the returned basis.
func orthonormalize(block [][]float64, dropTol float64) [][]float64 {
	out := block[:0]
	for _, v := range block {
		norm0 := math.Sqrt(floats.Dot(v, v))
		if norm0 == 0 {
			continue
		}
		for _, u := range out {
			floats.Axpy(-floats.Dot(u, v), u, v)
		}
		norm := math.Sqrt(floats.Dot(v, v))
		if norm <= dropTol*norm0 {
			continue
		}
		floats.Scale(v, 1/norm)
		out = append(out, v)
	}

	return out
}
