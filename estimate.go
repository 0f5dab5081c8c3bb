package schwarzgo

import (
	"math"
	"sort"

	"github.com/hupe1980/schwarzgo/internal/floats"
)

// ComputeError returns the globally reduced, partition-of-unity
// weighted Euclidean norms of the right-hand side f and of the residual
// A x - f, laid out (rhs0, res0, rhs1, res1, ...) for mu right-hand
// sides of dof entries each. The subdomain matrix must store its
// diagonal entries.
//
// Rows whose diagonal magnitude exceeds Eps*Pen are penalty rows and
// are skipped entirely. Rows that encode a plain Dirichlet condition
// (all stored off-diagonals up to the diagonal below Eps, diagonal
// within Eps of 1) are kept out of the residual norm, and right-hand
// side entries above Eps*Pen enter as f/Pen. The call is collective;
// excluded processes contribute zeros to the reduction.
func (s *Schwarz) ComputeError(x, f []float64, mu int) []float64 {
	storage := make([]float64, 2*mu)

	if !s.sd.Excluded() {
		dof := s.sd.dof
		a := s.sd.a

		tmp := make([]float64, mu*dof)
		s.GMV(x, tmp, mu)
		floats.Axpy(-1, f, tmp)

		for i := 0; i < dof; i++ {
			stop := a.RowPtr[i+1]
			if !a.Sym {
				row := a.ColIdx[a.RowPtr[i]:a.RowPtr[i+1]]
				stop = a.RowPtr[i] + sort.SearchInts(row, i+1)
			}
			if math.Abs(a.Data[stop-1]) > Eps*Pen {
				continue
			}
			boundary := true
			for j := a.RowPtr[i]; j < stop && boundary; j++ {
				if a.ColIdx[j] != i && math.Abs(a.Data[j]) > Eps {
					boundary = false
				} else if a.ColIdx[j] == i && math.Abs(a.Data[j]-1) > Eps {
					boundary = false
				}
			}
			for nu := 0; nu < mu; nu++ {
				if !boundary {
					r := tmp[nu*dof+i]
					storage[2*nu+1] += s.d[i] * r * r
				}
				v := f[nu*dof+i]
				if math.Abs(v) > Eps*Pen {
					v /= Pen
				}
				storage[2*nu] += s.d[i] * v * v
			}
		}
	}

	s.sd.c.AllReduceSum(storage)
	for i, v := range storage {
		storage[i] = math.Sqrt(v)
	}

	return storage
}
