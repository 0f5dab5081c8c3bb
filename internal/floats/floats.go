// Package floats provides the float64 vector kernels shared by the
// preconditioner hot paths.
// This is an internal package - external users should use the root and
// sparse packages.
package floats

// Fill sets every element of a to v.
func Fill(a []float64, v float64) {
	for i := range a {
		a[i] = v
	}
}

// Scale multiplies every element of a by alpha.
func Scale(a []float64, alpha float64) {
	for i := range a {
		a[i] *= alpha
	}
}

// Dot returns the dot product of a and b.
func Dot(a, b []float64) float64 {
	var ret float64
	for i := range a {
		ret += a[i] * b[i]
	}

	return ret
}

// Axpy adds alpha*x to y element-wise.
func Axpy(alpha float64, x, y []float64) {
	for i := range x {
		y[i] += alpha * x[i]
	}
}

// WeightedDot returns the dot product of a and b under the weights w.
func WeightedDot(w, a, b []float64) float64 {
	var ret float64
	for i := range w {
		ret += w[i] * a[i] * b[i]
	}

	return ret
}

// Diag multiplies v element-wise by the weights d. A v longer than d is
// treated as consecutive blocks of len(d), one per right-hand side, and
// every block is scaled.
func Diag(d, v []float64) {
	n := len(d)
	for off := 0; off+n <= len(v); off += n {
		block := v[off : off+n]
		for i, w := range d {
			block[i] *= w
		}
	}
}

// DiagTo writes the element-wise product of the weights d and src into
// dst, leaving src untouched. Blocked like Diag for multiple right-hand
// sides.
func DiagTo(d, src, dst []float64) {
	n := len(d)
	for off := 0; off+n <= len(src); off += n {
		s := src[off : off+n]
		t := dst[off : off+n]
		for i, w := range d {
			t[i] = w * s[i]
		}
	}
}
