package fd

import (
	"math"

	"github.com/meenmo/derivlib/analytic"
	"github.com/meenmo/derivlib/instruments/options"
)

// DigitalCondition prices European cash-or-nothing digitals. The discontinuous
// payoff needs no step conditions; everything is carried by the terminal row
// and the discounted-payout boundaries.
type DigitalCondition struct {
	opt options.Digital
}

// NewDigitalCondition validates the contract and builds its condition policy.
func NewDigitalCondition(opt options.Digital) (*DigitalCondition, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &DigitalCondition{opt: opt}, nil
}

func (c *DigitalCondition) Domain(v Valuation) (Domain, error) {
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

func (c *DigitalCondition) ExpiryValue(spot float64) float64 {
	return analytic.CashOrNothing(c.opt.Right, spot, c.opt.Strike, 0, 0, 0, 0, c.opt.Payout)
}

func (c *DigitalCondition) Prepare(*Grid, Valuation) error { return nil }

func (c *DigitalCondition) SetTerminalCondition(g *Grid, _ Valuation) {
	M := g.TimeSteps()
	for j, s := range g.Prices {
		g.Values[M][j] = c.ExpiryValue(s)
	}
}

func (c *DigitalCondition) SetBoundaryConditions(g *Grid, v Valuation) {
	M := g.TimeSteps()
	N := g.PriceSteps()
	tau := g.TimeToExpiry()
	r := v.Model.RiskFreeRate

	for i := 0; i <= M; i++ {
		pv := c.opt.Payout * math.Exp(-r*(tau-g.Times[i]))
		if c.opt.Right == options.Call {
			g.Values[i][0] = 0
			g.Values[i][N] = pv
		} else {
			g.Values[i][0] = pv
			g.Values[i][N] = 0
		}
	}
}

func (c *DigitalCondition) ApplyStepConditions(*Grid, Valuation, int) {}
