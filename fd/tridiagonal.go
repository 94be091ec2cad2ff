package fd

// tridiagonal is a banded linear operator over the interior grid columns.
// lower[k], main[k], upper[k] act on columns k, k+1, k+2 of the full grid; the
// off-band boundary contributions are folded into the right-hand side by the
// stepping loop.
type tridiagonal struct {
	lower, main, upper []float64
}

func newTridiagonal(n int) tridiagonal {
	return tridiagonal{
		lower: make([]float64, n),
		main:  make([]float64, n),
		upper: make([]float64, n),
	}
}

// solve solves T x = rhs in O(n) by the Thomas algorithm (forward elimination
// followed by back substitution). scratch must have length n; rhs and x may
// not alias. The eliminated diagonal must stay non-zero — the operator builder
// guarantees diagonal dominance at valid step sizes, so a zero pivot is a
// logic error, not a runtime condition.
func (t tridiagonal) solve(rhs, scratch, x []float64) {
	n := len(t.main)
	scratch[0] = t.upper[0] / t.main[0]
	x[0] = rhs[0] / t.main[0]
	for i := 1; i < n; i++ {
		m := t.main[i] - t.lower[i]*scratch[i-1]
		scratch[i] = t.upper[i] / m
		x[i] = (rhs[i] - t.lower[i]*x[i-1]) / m
	}
	for i := n - 2; i >= 0; i-- {
		x[i] -= scratch[i] * x[i+1]
	}
}

// multiply writes T v into out, treating the off-band neighbors of the first
// and last rows as zero. v and out may not alias.
func (t tridiagonal) multiply(v, out []float64) {
	n := len(t.main)
	if n == 1 {
		out[0] = t.main[0] * v[0]
		return
	}
	out[0] = t.main[0]*v[0] + t.upper[0]*v[1]
	for i := 1; i < n-1; i++ {
		out[i] = t.lower[i]*v[i-1] + t.main[i]*v[i] + t.upper[i]*v[i+1]
	}
	out[n-1] = t.lower[n-1]*v[n-2] + t.main[n-1]*v[n-1]
}
