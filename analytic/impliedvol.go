package analytic

import (
	"fmt"
	"math"

	"github.com/meenmo/derivlib/instruments/options"
)

// ImpliedVolInput holds the parameters needed to back out a Black-Scholes
// implied volatility from an observed option price.
type ImpliedVolInput struct {
	Right options.Right
	// Spot is the current underlying price.
	Spot float64
	// Strike is the exercise price.
	Strike float64
	// TimeToExpiry is the remaining life in years (ACT/365F).
	TimeToExpiry float64
	// RiskFreeRate and DividendYield are continuously compounded.
	RiskFreeRate  float64
	DividendYield float64
	// Price is the observed option premium.
	Price float64
}

// ImpliedVolResult is the output of SolveImpliedVolatility.
type ImpliedVolResult struct {
	// Volatility is the annualized Black-Scholes volatility.
	Volatility float64
	// Iterations is the number of Newton-Raphson steps taken.
	Iterations int
}

// SolveImpliedVolatility inverts the Black-Scholes-Merton formula for
// volatility using Newton-Raphson with analytic vega.
func SolveImpliedVolatility(in ImpliedVolInput) (ImpliedVolResult, error) {
	if in.Spot <= 0 || in.Strike <= 0 {
		return ImpliedVolResult{}, fmt.Errorf("SolveImpliedVolatility: spot and strike must be positive")
	}
	if in.TimeToExpiry <= 0 {
		return ImpliedVolResult{}, fmt.Errorf("SolveImpliedVolatility: time to expiry must be positive")
	}

	// No-arbitrage bounds: the price must exceed the zero-vol value and stay
	// below the vol->infinity limit.
	floor := BlackScholes(in.Right, in.Spot, in.Strike, in.TimeToExpiry, 0, in.RiskFreeRate, in.DividendYield)
	var ceil float64
	if in.Right == options.Call {
		ceil = in.Spot * math.Exp(-in.DividendYield*in.TimeToExpiry)
	} else {
		ceil = in.Strike * math.Exp(-in.RiskFreeRate*in.TimeToExpiry)
	}
	if in.Price <= floor || in.Price >= ceil {
		return ImpliedVolResult{}, fmt.Errorf("SolveImpliedVolatility: price %.6f outside the arbitrage bounds (%.6f, %.6f)",
			in.Price, floor, ceil)
	}

	const (
		maxIterations = 100
		tolerance     = 1e-10
	)
	vol := 0.2
	for i := 1; i <= maxIterations; i++ {
		diff := BlackScholes(in.Right, in.Spot, in.Strike, in.TimeToExpiry, vol, in.RiskFreeRate, in.DividendYield) - in.Price
		if math.Abs(diff) < tolerance {
			return ImpliedVolResult{Volatility: vol, Iterations: i}, nil
		}
		vega := Vega(in.Spot, in.Strike, in.TimeToExpiry, vol, in.RiskFreeRate, in.DividendYield)
		if vega < 1e-12 {
			return ImpliedVolResult{}, fmt.Errorf("SolveImpliedVolatility: vega vanished at vol=%.6f, cannot continue", vol)
		}
		vol -= diff / vega
		if vol <= 0 {
			vol = tolerance
		}
	}
	return ImpliedVolResult{}, fmt.Errorf("SolveImpliedVolatility: no convergence after %d iterations", maxIterations)
}
