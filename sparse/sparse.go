// Package sparse implements the compressed sparse row matrices the
// preconditioner operates on.
//
// Matrices are square. Column indices are ascending within each row.
// FromDense always stores the diagonal entry, even when it is zero;
// symmetric matrices store the lower triangle only, so a stored
// diagonal is the last entry of its row.
package sparse

// CSR is a square sparse matrix in compressed sparse row layout.
type CSR struct {
	N      int
	RowPtr []int
	ColIdx []int
	Data   []float64
	// Sym marks lower-triangle storage. Products account for the
	// implicit upper triangle.
	Sym bool
}

// New returns an empty n x n matrix with room for nnz entries. RowPtr
// is zeroed; the caller fills the three arrays.
func New(n, nnz int, sym bool) *CSR {
	return &CSR{
		N:      n,
		RowPtr: make([]int, n+1),
		ColIdx: make([]int, nnz),
		Data:   make([]float64, nnz),
		Sym:    sym,
	}
}

// FromDense builds a CSR matrix from a dense row-major matrix. Zero
// entries are dropped except on the diagonal. With sym set, only the
// lower triangle of a is read.
func FromDense(a [][]float64, sym bool) *CSR {
	n := len(a)
	m := &CSR{N: n, RowPtr: make([]int, n+1), Sym: sym}
	for i := 0; i < n; i++ {
		last := n - 1
		if sym {
			last = i
		}
		for j := 0; j <= last; j++ {
			if a[i][j] != 0 || j == i {
				m.ColIdx = append(m.ColIdx, j)
				m.Data = append(m.Data, a[i][j])
			}
		}
		m.RowPtr[i+1] = len(m.ColIdx)
	}

	return m
}

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.ColIdx) }

// MulVec writes the product of m and in into out. Inputs longer than N
// are treated as consecutive blocks, one per right-hand side.
func (m *CSR) MulVec(in, out []float64) {
	for i := range out {
		out[i] = 0
	}
	m.AddMulVec(1, in, out)
}

// AddMulVec adds alpha times the product of m and in to out, blocked
// like MulVec for multiple right-hand sides.
func (m *CSR) AddMulVec(alpha float64, in, out []float64) {
	n := m.N
	for off := 0; off+n <= len(in) && off+n <= len(out); off += n {
		x := in[off : off+n]
		y := out[off : off+n]
		for i := 0; i < n; i++ {
			for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
				j := m.ColIdx[k]
				v := alpha * m.Data[k]
				y[i] += v * x[j]
				if m.Sym && j != i {
					y[j] += v * x[i]
				}
			}
		}
	}
}

// SameSparsity reports whether m and o share dimension, storage kind
// and the exact nonzero pattern.
func (m *CSR) SameSparsity(o *CSR) bool {
	if m == nil || o == nil {
		return false
	}
	if m.N != o.N || m.Sym != o.Sym || len(m.ColIdx) != len(o.ColIdx) {
		return false
	}
	if len(m.RowPtr) != len(o.RowPtr) {
		return false
	}
	// Fast path for aliased index slices.
	if len(m.ColIdx) > 0 && &m.ColIdx[0] == &o.ColIdx[0] {
		return true
	}
	for i := range m.RowPtr {
		if m.RowPtr[i] != o.RowPtr[i] {
			return false
		}
	}
	for i := range m.ColIdx {
		if m.ColIdx[i] != o.ColIdx[i] {
			return false
		}
	}

	return true
}
