package montecarlo

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/derivlib/instruments/options"
)

// LSMPricer prices American options by Longstaff-Schwartz regression: simulate
// paths forward, then walk backward estimating the continuation value at each
// exercise date by a polynomial least-squares fit over in-the-money paths.
type LSMPricer struct {
	// Degree of the regression polynomial in the underlying price.
	Degree int
}

// NewLSMPricer builds a pricer; non-positive degrees default to 2.
func NewLSMPricer(degree int) *LSMPricer {
	if degree <= 0 {
		degree = 2
	}
	return &LSMPricer{Degree: degree}
}

// Value returns the American option value under flat BSM dynamics.
func (l *LSMPricer) Value(right options.Right, p Params) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}

	dt := p.TimeToExpiry / float64(p.Steps)
	df := math.Exp(-p.RiskFreeRate * dt)
	drift := (p.RiskFreeRate - p.DividendYield - 0.5*p.Volatility*p.Volatility) * dt
	diffusion := p.Volatility * math.Sqrt(dt)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(p.Seed)}

	paths := make([][]float64, p.Paths)
	for i := range paths {
		paths[i] = make([]float64, p.Steps+1)
		paths[i][0] = p.Spot
		for j := 1; j <= p.Steps; j++ {
			paths[i][j] = paths[i][j-1] * math.Exp(drift+diffusion*normal.Rand())
		}
	}

	cash := make([]float64, p.Paths)
	for i := range cash {
		cash[i] = payoff(right, paths[i][p.Steps], p.Strike)
	}

	cols := l.Degree + 1
	for t := p.Steps - 1; t >= 1; t-- {
		for i := range cash {
			cash[i] *= df
		}

		var itm []int
		for i := range paths {
			if payoff(right, paths[i][t], p.Strike) > 0 {
				itm = append(itm, i)
			}
		}
		// Too few in-the-money paths to identify the fit: hold everywhere.
		if len(itm) < cols+1 {
			continue
		}

		beta, err := l.regress(paths, cash, itm, t, cols)
		if err != nil {
			return 0, fmt.Errorf("LSMPricer: regression at step %d: %w", t, err)
		}
		for _, i := range itm {
			exercise := payoff(right, paths[i][t], p.Strike)
			if exercise > polyval(beta, paths[i][t]) {
				cash[i] = exercise
			}
		}
	}

	sum := 0.0
	for _, c := range cash {
		sum += c
	}
	return df * sum / float64(p.Paths), nil
}

// regress fits the continuation value on a polynomial basis of the price over
// in-the-money paths.
func (l *LSMPricer) regress(paths [][]float64, cash []float64, itm []int, t, cols int) ([]float64, error) {
	a := mat.NewDense(len(itm), cols, nil)
	b := mat.NewDense(len(itm), 1, nil)
	for row, i := range itm {
		x := paths[i][t]
		basis := 1.0
		for c := 0; c < cols; c++ {
			a.Set(row, c, basis)
			basis *= x
		}
		b.Set(row, 0, cash[i])
	}

	var qr mat.QR
	qr.Factorize(a)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, b); err != nil {
		return nil, err
	}
	out := make([]float64, cols)
	for c := 0; c < cols; c++ {
		out[c] = beta.At(c, 0)
	}
	return out, nil
}

func polyval(beta []float64, x float64) float64 {
	v := 0.0
	for c := len(beta) - 1; c >= 0; c-- {
		v = v*x + beta[c]
	}
	return v
}
