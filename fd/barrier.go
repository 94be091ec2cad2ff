package fd

import (
	"fmt"
	"math"

	"github.com/meenmo/derivlib/analytic"
	"github.com/meenmo/derivlib/instruments/options"
)

// BarrierCondition prices single-barrier options.
//
// Continuous monitoring truncates the price domain at the barrier, so the
// barrier itself is a boundary column: rebate for knock-outs, the analytic
// European value for knock-ins (once touched the contract is a vanilla). No
// step conditions are needed.
//
// Discrete monitoring solves the full domain and snaps the nodes beyond the
// barrier on every observation step: to the rebate for knock-outs, to the
// analytic European value for knock-ins.
type BarrierCondition struct {
	opt options.Barrier

	// per-valuation state, rebuilt by Prepare
	obsSteps map[int]int
}

// NewBarrierCondition validates the contract and builds its condition policy.
func NewBarrierCondition(opt options.Barrier) (*BarrierCondition, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &BarrierCondition{opt: opt}, nil
}

// beyond reports whether a price node is at or past the barrier.
func (c *BarrierCondition) beyond(s float64) bool {
	if c.opt.Type.IsUp() {
		return s >= c.opt.Level
	}
	return s <= c.opt.Level
}

func (c *BarrierCondition) Domain(v Valuation) (Domain, error) {
	tau, err := yearsToExpiry(v, c.opt.EffectiveDate, c.opt.ExpirationDate)
	if err != nil {
		return Domain{}, err
	}
	if c.opt.Continuous() {
		if c.beyond(v.Spot) {
			return Domain{}, fmt.Errorf("fd: spot %g is beyond the %s barrier %g; the option has already knocked",
				v.Spot, c.opt.Type, c.opt.Level)
		}
		if c.opt.Type.IsUp() {
			return Domain{MinPrice: 0, MaxPrice: c.opt.Level, TimeToExpiry: tau}, nil
		}
		return Domain{
			MinPrice:     c.opt.Level,
			MaxPrice:     4 * math.Max(c.opt.Strike, math.Max(c.opt.Level, v.Spot)),
			TimeToExpiry: tau,
		}, nil
	}
	return Domain{
		MinPrice:     0,
		MaxPrice:     4 * math.Max(c.opt.Strike, math.Max(c.opt.Level, v.Spot)),
		TimeToExpiry: tau,
	}, nil
}

func (c *BarrierCondition) ExpiryValue(spot float64) float64 {
	intrinsic := analytic.Intrinsic(c.opt.Right, spot, c.opt.Strike)
	if c.opt.Type.IsKnockIn() {
		if c.beyond(spot) {
			return intrinsic
		}
		return c.opt.Rebate
	}
	if c.beyond(spot) {
		return c.opt.Rebate
	}
	return intrinsic
}

// Prepare maps the discrete observation schedule onto grid steps. Observation
// times run backward from expiry at the contract interval, so the expiry
// itself is always observed.
func (c *BarrierCondition) Prepare(g *Grid, _ Valuation) error {
	c.obsSteps = nil
	if c.opt.Continuous() {
		return nil
	}
	times := backwardObservationTimes(g.TimeToExpiry(), c.opt.ObservationInterval)
	steps, err := MapObservations(times, g.TimeStep(), g.TimeSteps())
	if err != nil {
		return err
	}
	c.obsSteps = steps
	return nil
}

func (c *BarrierCondition) SetTerminalCondition(g *Grid, _ Valuation) {
	M := g.TimeSteps()
	for j, s := range g.Prices {
		g.Values[M][j] = c.ExpiryValue(s)
	}
}

func (c *BarrierCondition) SetBoundaryConditions(g *Grid, v Valuation) {
	M := g.TimeSteps()
	N := g.PriceSteps()
	tau := g.TimeToExpiry()
	k := c.opt.Strike
	r := v.Model.RiskFreeRate
	q := v.Model.DividendYield

	for i := 0; i <= M; i++ {
		rem := tau - g.Times[i]
		df := math.Exp(-r * rem)

		// The plain European values at the domain extremes; overridden on
		// whichever side the barrier semantics claim.
		var lower, upper float64
		if c.opt.Right == options.Call {
			lower = 0
			upper = g.Prices[N]*math.Exp(-q*rem) - k*df
		} else {
			lower = k * df
			upper = 0
		}

		switch c.opt.Type {
		case options.UpOut:
			g.Values[i][0] = lower
			g.Values[i][N] = c.opt.Rebate
		case options.DownOut:
			g.Values[i][0] = c.opt.Rebate
			g.Values[i][N] = upper
		case options.UpIn:
			// Touching the barrier turns the contract into a vanilla.
			g.Values[i][0] = c.opt.Rebate * df
			g.Values[i][N] = analytic.BlackScholes(c.opt.Right, g.Prices[N], k, rem, v.Model.Volatility, r, q)
		case options.DownIn:
			g.Values[i][0] = analytic.BlackScholes(c.opt.Right, g.Prices[0], k, rem, v.Model.Volatility, r, q)
			g.Values[i][N] = c.opt.Rebate * df
		}
	}
}

func (c *BarrierCondition) ApplyStepConditions(g *Grid, v Valuation, step int) {
	if c.obsSteps == nil {
		return
	}
	if _, observed := c.obsSteps[step]; !observed {
		return
	}
	rem := g.TimeToExpiry() - g.Times[step]
	row := g.Values[step]
	knockIn := c.opt.Type.IsKnockIn()
	for j, s := range g.Prices {
		if !c.beyond(s) {
			continue
		}
		if knockIn {
			row[j] = analytic.BlackScholes(c.opt.Right, s, c.opt.Strike, rem,
				v.Model.Volatility, v.Model.RiskFreeRate, v.Model.DividendYield)
		} else {
			row[j] = c.opt.Rebate
		}
	}
}

// backwardObservationTimes generates observation times (years from valuation)
// from expiry backward at the given interval, keeping those inside [0, tau].
// A time landing on the valuation date itself is included and applied by the
// final step-condition call at row 0.
func backwardObservationTimes(tau, interval float64) []float64 {
	count := int(tau/interval) + 1
	times := make([]float64, 0, count)
	for k := count; k >= 0; k-- {
		t := tau - float64(k)*interval
		if t < -1e-12 {
			continue
		}
		if t < 0 {
			t = 0
		}
		times = append(times, t)
	}
	return times
}
