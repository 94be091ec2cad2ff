package fd

import (
	"errors"
	"fmt"
)

// ErrUnstableScheme reports an explicit-Euler configuration that violates the
// stability bound. The caller must reduce the time step or refine the price
// grid; the engine never silently downgrades to an implicit scheme.
var ErrUnstableScheme = errors.New("explicit scheme violates the stability bound")

// buildOperators fills the implicit-side (m1) and explicit-side (m2) operators
// for one backward step of the theta scheme. The BSM coefficients are
// time-homogeneous for flat parameters, so both operators are built once per
// valuation.
//
// For each interior node j with price S:
//
//	diffusion = vol*S/ds, drift = (r-q)*S/ds
//	a = dt*(diffusion^2 - drift)/2, b = dt*(diffusion^2 + r), c = dt*(diffusion^2 + drift)/2
//	implicit row: -theta*a, 1+theta*b, -theta*c
//	explicit row: (1-theta)*a, 1-(1-theta)*b, (1-theta)*c
func buildOperators(scheme Scheme, m Model, g *Grid, m1, m2 *tridiagonal) error {
	theta := scheme.theta()
	ds := g.PriceStep()
	dt := g.TimeStep()
	r := m.RiskFreeRate
	q := m.DividendYield

	maxDiffusion := 0.0
	for j := 1; j < len(g.Prices)-1; j++ {
		s := g.Prices[j]
		diffusion := m.Volatility * s / ds
		drift := (r - q) * s / ds
		if diffusion > maxDiffusion {
			maxDiffusion = diffusion
		}

		a := 0.5 * dt * (diffusion*diffusion - drift)
		b := dt * (diffusion*diffusion + r)
		c := 0.5 * dt * (diffusion*diffusion + drift)

		k := j - 1
		m1.lower[k] = -theta * a
		m1.main[k] = 1 + theta*b
		m1.upper[k] = -theta * c
		m2.lower[k] = (1 - theta) * a
		m2.main[k] = 1 - (1-theta)*b
		m2.upper[k] = (1 - theta) * c
	}

	if scheme == ExplicitEuler {
		if bound := dt * (maxDiffusion*maxDiffusion + r); bound > 1 {
			return fmt.Errorf("fd: %w: dt*(maxDiffusion^2+r) = %.4f exceeds 1; reduce the time step count or increase the price step count", ErrUnstableScheme, bound)
		}
	}
	return nil
}
