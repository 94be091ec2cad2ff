package fd

import (
	"math"
	"sort"

	"github.com/meenmo/derivlib/instruments/notes"
)

// AccumulatorCondition prices daily-accrual accumulators through a linear
// decomposition solved in two passes on the same grid nodes:
//
//   - the unit surface values a single forward purchase at the strike that is
//     cancelled by a knock-out (terminal S-K, zeroed at or above the barrier
//     on every observation step);
//   - the accrual surface starts at zero and, on every observation step, adds
//     the unit value per node — multiplied by the acceleration factor below
//     the strike — while knock-out zeroes it.
type AccumulatorCondition struct {
	acc notes.Accumulator
	// unitPass marks the auxiliary pass that solves the unit-forward surface.
	unitPass bool

	// per-valuation state, rebuilt by Prepare
	obsSteps map[int]int
	obsYears []float64 // ascending, years from valuation
	unitGrid *Grid     // read-only unit surface, set by the engine
}

// NewAccumulatorCondition validates the contract and builds its condition policy.
func NewAccumulatorCondition(acc notes.Accumulator) (*AccumulatorCondition, error) {
	if err := acc.Validate(); err != nil {
		return nil, err
	}
	return &AccumulatorCondition{acc: acc}, nil
}

func (c *AccumulatorCondition) auxiliaryPolicy() ConditionPolicy {
	if c.unitPass {
		return nil
	}
	return &AccumulatorCondition{acc: c.acc, unitPass: true}
}

func (c *AccumulatorCondition) attachAuxiliaryGrid(g *Grid) { c.unitGrid = g }

func (c *AccumulatorCondition) Domain(v Valuation) (Domain, error) {
	tau, err := yearsToExpiry(v, c.acc.EffectiveDate, c.acc.ExpirationDate)
	if err != nil {
		return Domain{}, err
	}
	return Domain{
		MinPrice:     0,
		MaxPrice:     4 * math.Max(c.acc.StrikePrice, math.Max(c.acc.KnockOutPrice, v.Spot)),
		TimeToExpiry: tau,
	}, nil
}

// quantity is the per-observation purchase multiplier at a price node.
func (c *AccumulatorCondition) quantity(s float64) float64 {
	if s < c.acc.StrikePrice {
		return c.acc.Acceleration
	}
	return 1
}

func (c *AccumulatorCondition) ExpiryValue(spot float64) float64 {
	if spot >= c.acc.KnockOutPrice {
		return 0
	}
	if c.unitPass {
		return spot - c.acc.StrikePrice
	}
	// The expiry-day observation settles immediately.
	return c.quantity(spot) * (spot - c.acc.StrikePrice)
}

func (c *AccumulatorCondition) Prepare(g *Grid, _ Valuation) error {
	c.obsYears = backwardObservationTimes(g.TimeToExpiry(), c.acc.ObservationInterval)
	steps, err := MapObservations(c.obsYears, g.TimeStep(), g.TimeSteps())
	if err != nil {
		return err
	}
	c.obsSteps = steps
	return nil
}

func (c *AccumulatorCondition) SetTerminalCondition(g *Grid, _ Valuation) {
	M := g.TimeSteps()
	for j, s := range g.Prices {
		if c.unitPass {
			g.Values[M][j] = s - c.acc.StrikePrice
		} else {
			// Accruals, including the expiry day's, enter as step conditions.
			g.Values[M][j] = 0
		}
	}
}

func (c *AccumulatorCondition) SetBoundaryConditions(g *Grid, v Valuation) {
	M := g.TimeSteps()
	N := g.PriceSteps()
	tau := g.TimeToExpiry()
	r := v.Model.RiskFreeRate
	k := c.acc.StrikePrice

	for i := 0; i <= M; i++ {
		rem := tau - g.Times[i]

		// Upper extreme: knocked out at the next observation, nothing accrues.
		g.Values[i][N] = 0

		if c.unitPass {
			// Forward value at zero spot.
			g.Values[i][0] = -k * math.Exp(-r*rem)
		} else {
			// All remaining observations accrue the accelerated short forward:
			// sum_d e^{-r(t_d-t)} * accel * (-K e^{-r(tau-t_d)}).
			n := c.remainingObservations(g.Times[i])
			g.Values[i][0] = -c.acc.Acceleration * k * float64(n) * math.Exp(-r*rem)
		}
	}
}

// remainingObservations counts observation times at or after grid time t.
func (c *AccumulatorCondition) remainingObservations(t float64) int {
	i := sort.SearchFloat64s(c.obsYears, t-1e-12)
	return len(c.obsYears) - i
}

func (c *AccumulatorCondition) ApplyStepConditions(g *Grid, _ Valuation, step int) {
	if _, observed := c.obsSteps[step]; !observed {
		return
	}
	row := g.Values[step]
	if c.unitPass {
		for j, s := range g.Prices {
			if s >= c.acc.KnockOutPrice {
				row[j] = 0
			}
		}
		return
	}
	unit := c.unitGrid.Values[step]
	for j, s := range g.Prices {
		if s >= c.acc.KnockOutPrice {
			row[j] = 0
			continue
		}
		row[j] += c.quantity(s) * unit[j]
	}
}
