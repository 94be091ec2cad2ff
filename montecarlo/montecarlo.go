// Package montecarlo provides a geometric-Brownian-motion path engine and a
// Longstaff-Schwartz American pricer, used as the cross-check collaborator for
// the finite-difference engine.
package montecarlo

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/derivlib/instruments/options"
)

// Params drives one Monte Carlo valuation under flat BSM dynamics.
type Params struct {
	Spot   float64
	Strike float64
	// TimeToExpiry is the remaining life in years.
	TimeToExpiry float64
	Volatility   float64
	RiskFreeRate float64
	// DividendYield is the continuous dividend yield.
	DividendYield float64
	// Paths is the number of simulated paths.
	Paths int
	// Steps is the number of exercise/monitoring steps per path.
	Steps int
	// Seed makes the draw sequence reproducible.
	Seed uint64
}

func (p Params) validate() error {
	if p.Spot <= 0 || p.Strike <= 0 {
		return fmt.Errorf("montecarlo: spot and strike must be positive")
	}
	if p.TimeToExpiry <= 0 {
		return fmt.Errorf("montecarlo: time to expiry must be positive")
	}
	if p.Volatility < 0 {
		return fmt.Errorf("montecarlo: volatility must be non-negative")
	}
	if p.Paths < 2 || p.Steps < 1 {
		return fmt.Errorf("montecarlo: need at least 2 paths and 1 step, got %dx%d", p.Paths, p.Steps)
	}
	return nil
}

func payoff(right options.Right, s, k float64) float64 {
	if right == options.Call {
		return math.Max(s-k, 0)
	}
	return math.Max(k-s, 0)
}

// European values a European vanilla by sampling the terminal price directly.
func European(right options.Right, p Params) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(p.Seed)}

	t := p.TimeToExpiry
	drift := (p.RiskFreeRate - p.DividendYield - 0.5*p.Volatility*p.Volatility) * t
	diffusion := p.Volatility * math.Sqrt(t)
	sum := 0.0
	for i := 0; i < p.Paths; i++ {
		st := p.Spot * math.Exp(drift+diffusion*normal.Rand())
		sum += payoff(right, st, p.Strike)
	}
	return math.Exp(-p.RiskFreeRate*t) * sum / float64(p.Paths), nil
}
