package fd

import (
	"math"

	"github.com/meenmo/derivlib/analytic"
	"github.com/meenmo/derivlib/instruments/options"
)

// VanillaCondition prices European and American vanilla options. American
// exercise enters as a node-wise floor against intrinsic value at every step.
type VanillaCondition struct {
	opt options.Vanilla
}

// NewVanillaCondition validates the contract and builds its condition policy.
func NewVanillaCondition(opt options.Vanilla) (*VanillaCondition, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &VanillaCondition{opt: opt}, nil
}

func (c *VanillaCondition) Domain(v Valuation) (Domain, error) {
	tau, err := yearsToExpiry(v, c.opt.EffectiveDate, c.opt.ExpirationDate)
	if err != nil {
		return Domain{}, err
	}
	return Domain{
		MinPrice:     0,
		MaxPrice:     4 * math.Max(c.opt.Strike, v.Spot),
		TimeToExpiry: tau,
	}, nil
}

func (c *VanillaCondition) ExpiryValue(spot float64) float64 {
	return analytic.Intrinsic(c.opt.Right, spot, c.opt.Strike)
}

func (c *VanillaCondition) Prepare(*Grid, Valuation) error { return nil }

func (c *VanillaCondition) SetTerminalCondition(g *Grid, _ Valuation) {
	M := g.TimeSteps()
	for j, s := range g.Prices {
		g.Values[M][j] = c.ExpiryValue(s)
	}
}

func (c *VanillaCondition) SetBoundaryConditions(g *Grid, v Valuation) {
	M := g.TimeSteps()
	N := g.PriceSteps()
	tau := g.TimeToExpiry()
	k := c.opt.Strike
	r := v.Model.RiskFreeRate
	q := v.Model.DividendYield
	american := c.opt.Exercise == options.American

	for i := 0; i <= M; i++ {
		rem := tau - g.Times[i]
		switch c.opt.Right {
		case options.Call:
			g.Values[i][0] = 0
			if american {
				g.Values[i][N] = g.Prices[N] - k
			} else {
				g.Values[i][N] = g.Prices[N]*math.Exp(-q*rem) - k*math.Exp(-r*rem)
			}
		case options.Put:
			g.Values[i][N] = 0
			if american {
				// Immediate exercise dominates at the lower extreme.
				g.Values[i][0] = k
			} else {
				g.Values[i][0] = k * math.Exp(-r*rem)
			}
		}
	}
}

func (c *VanillaCondition) ApplyStepConditions(g *Grid, _ Valuation, step int) {
	if c.opt.Exercise != options.American {
		return
	}
	row := g.Values[step]
	for j, s := range g.Prices {
		if iv := analytic.Intrinsic(c.opt.Right, s, c.opt.Strike); iv > row[j] {
			row[j] = iv
		}
	}
}
