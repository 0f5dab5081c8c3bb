package solver

import (
	"fmt"
	"math"

	"github.com/hupe1980/schwarzgo/sparse"
)

const (
	// pivotEps is the magnitude below which a pivot counts as null.
	pivotEps = 1.0e-12
	// pivotPen replaces detected null pivots so the corresponding
	// solution entries come out as zero.
	pivotPen = 1.0e+30
)

// DenseLU factorizes the subdomain matrix densely with partial
// pivoting. Subdomain problems are small enough that the dense factors
// stay cheap, and a dense solve has no fill-in surprises.
type DenseLU struct {
	n     int
	lu    []float64 // row-major, L below the diagonal with unit diagonal, U above
	piv   []int
	fixed []int
}

// NewDenseLU returns an unfactorized solver.
func NewDenseLU() *DenseLU {
	return &DenseLU{}
}

// Factorize computes the LU factors of a. With detect set, null pivots
// are replaced by a penalty value and recorded instead of failing.
func (d *DenseLU) Factorize(a *sparse.CSR, detect bool) error {
	n := a.N
	lu := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for k := a.RowPtr[i]; k < a.RowPtr[i+1]; k++ {
			j := a.ColIdx[k]
			lu[i*n+j] = a.Data[k]
			if a.Sym && j != i {
				lu[j*n+i] = a.Data[k]
			}
		}
	}

	piv := make([]int, n)
	var fixed []int
	for k := 0; k < n; k++ {
		p := k
		max := math.Abs(lu[k*n+k])
		for r := k + 1; r < n; r++ {
			if v := math.Abs(lu[r*n+k]); v > max {
				max, p = v, r
			}
		}
		piv[k] = p
		if p != k {
			rk := lu[k*n : k*n+n]
			rp := lu[p*n : p*n+n]
			for c := range rk {
				rk[c], rp[c] = rp[c], rk[c]
			}
		}
		if max < pivotEps {
			if !detect {
				return fmt.Errorf("%w: null pivot in row %d", ErrSingular, k)
			}
			lu[k*n+k] = pivotPen
			fixed = append(fixed, k)
		}
		pk := lu[k*n+k]
		for r := k + 1; r < n; r++ {
			m := lu[r*n+k] / pk
			lu[r*n+k] = m
			if m == 0 {
				continue
			}
			for c := k + 1; c < n; c++ {
				lu[r*n+c] -= m * lu[k*n+c]
			}
		}
	}

	d.n, d.lu, d.piv, d.fixed = n, lu, piv, fixed

	return nil
}

// Solve overwrites the mu right-hand sides in x with the solutions.
func (d *DenseLU) Solve(x []float64, mu int) error {
	if d.lu == nil {
		return ErrNotFactorized
	}
	n := d.n
	for b := 0; b < mu; b++ {
		v := x[b*n : (b+1)*n]
		for k := 0; k < n; k++ {
			if p := d.piv[k]; p != k {
				v[k], v[p] = v[p], v[k]
			}
		}
		for k := 1; k < n; k++ {
			row := d.lu[k*n : k*n+n]
			s := v[k]
			for c := 0; c < k; c++ {
				s -= row[c] * v[c]
			}
			v[k] = s
		}
		for k := n - 1; k >= 0; k-- {
			row := d.lu[k*n : k*n+n]
			s := v[k]
			for c := k + 1; c < n; c++ {
				s -= row[c] * v[c]
			}
			v[k] = s / row[k]
		}
	}

	return nil
}

// SolveTo solves the mu right-hand sides in src into dst.
func (d *DenseLU) SolveTo(dst, src []float64, mu int) error {
	if d.lu == nil {
		return ErrNotFactorized
	}
	copy(dst[:d.n*mu], src[:d.n*mu])

	return d.Solve(dst, mu)
}

// Dim returns the dimension of the factorized matrix, or 0 before
// Factorize.
func (d *DenseLU) Dim() int { return d.n }

// Fixed returns the rows whose null pivots were replaced during a
// factorization with pivot detection.
func (d *DenseLU) Fixed() []int { return d.fixed }
