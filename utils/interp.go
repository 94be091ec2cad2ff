package utils

import (
	"fmt"
	"sort"
)

// LinearInterpolate evaluates the piecewise-linear function through (xs, ys) at x.
//
// xs must be strictly increasing and the same length as ys. x outside [xs[0],
// xs[len-1]] is an error rather than an extrapolation: callers query grid
// interiors and an out-of-range x means the grid was built too narrow.
func LinearInterpolate(x float64, xs, ys []float64) (float64, error) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0, fmt.Errorf("LinearInterpolate: need matching node slices of length >= 2, got %d and %d", len(xs), len(ys))
	}
	if x < xs[0] || x > xs[len(xs)-1] {
		return 0, fmt.Errorf("LinearInterpolate: x=%g outside node range [%g, %g]", x, xs[0], xs[len(xs)-1])
	}

	// First index with xs[i] >= x.
	i := sort.SearchFloat64s(xs, x)
	if i < len(xs) && xs[i] == x {
		return ys[i], nil
	}

	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	w := (x - x0) / (x1 - x0)
	return y0 + w*(y1-y0), nil
}
