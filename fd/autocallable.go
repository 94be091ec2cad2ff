package fd

import (
	"math"
	"sort"

	"github.com/meenmo/derivlib/instruments/notes"
	"github.com/meenmo/derivlib/utils"
)

// AutocallableCondition prices autocallable notes in excess-over-par units: a
// knock-out on an observation date pays the coupon accrued from the effective
// date, maturity without a knock-out pays the minimal coupon, and a knocked-in
// note carries the underlying's downside below par.
//
// Notes with a knock-in barrier are solved in two passes: the already
// knocked-in surface first, then the live note, substituting the cached
// surface below the knock-in price on every knock-in observation step.
type AutocallableCondition struct {
	note notes.Autocallable
	// knockedIn marks the auxiliary pass that prices the note as if the
	// knock-in barrier had already been touched.
	knockedIn bool

	// per-valuation state, rebuilt by Prepare
	koSteps      map[int]int
	koAccrual    []float64 // coupon accrual years effective -> observation
	koYears      []float64 // years valuation -> observation, ascending
	kiSteps      map[int]int
	kiEveryStep  bool
	kiGrid       *Grid // read-only knocked-in surface, set by the engine
	accrualTotal float64
}

// NewAutocallableCondition validates the note and builds its condition policy.
func NewAutocallableCondition(note notes.Autocallable) (*AutocallableCondition, error) {
	if err := note.Validate(); err != nil {
		return nil, err
	}
	return &AutocallableCondition{note: note}, nil
}

func (c *AutocallableCondition) auxiliaryPolicy() ConditionPolicy {
	if c.knockedIn || !c.note.HasKnockIn() {
		return nil
	}
	return &AutocallableCondition{note: c.note, knockedIn: true}
}

func (c *AutocallableCondition) attachAuxiliaryGrid(g *Grid) { c.kiGrid = g }

func (c *AutocallableCondition) Domain(v Valuation) (Domain, error) {
	tau, err := yearsToExpiry(v, c.note.EffectiveDate, c.note.ExpirationDate)
	if err != nil {
		return Domain{}, err
	}
	return Domain{
		MinPrice:     0,
		MaxPrice:     4 * math.Max(c.note.InitialPrice, math.Max(c.note.KnockOutPrice, v.Spot)),
		TimeToExpiry: tau,
	}, nil
}

func (c *AutocallableCondition) ExpiryValue(spot float64) float64 {
	total := utils.YearFraction(c.note.EffectiveDate, c.note.ExpirationDate)
	if spot >= c.note.KnockOutPrice {
		return c.note.CouponRate * total
	}
	if c.knockedIn || (c.note.HasKnockIn() && spot <= c.note.KnockInPrice) {
		return math.Min(spot/c.note.InitialPrice-1, 0)
	}
	return c.note.MinimalCouponRate * total
}

// Prepare maps the knock-out observation dates (and, for live knock-in notes,
// the knock-in observation times) onto grid steps. Observation dates before
// the valuation date are already settled and dropped.
func (c *AutocallableCondition) Prepare(g *Grid, v Valuation) error {
	c.accrualTotal = utils.YearFraction(c.note.EffectiveDate, c.note.ExpirationDate)
	c.koYears = c.koYears[:0]
	c.koAccrual = c.koAccrual[:0]
	for _, d := range c.note.ObservationDates {
		if d.Before(v.Date) {
			continue
		}
		c.koYears = append(c.koYears, utils.YearFraction(v.Date, d))
		c.koAccrual = append(c.koAccrual, utils.YearFraction(c.note.EffectiveDate, d))
	}
	steps, err := MapObservations(c.koYears, g.TimeStep(), g.TimeSteps())
	if err != nil {
		return err
	}
	c.koSteps = steps

	c.kiSteps = nil
	c.kiEveryStep = false
	if !c.knockedIn && c.note.HasKnockIn() {
		if c.note.KnockInObservationInterval == 0 {
			c.kiEveryStep = true
		} else {
			times := backwardObservationTimes(g.TimeToExpiry(), c.note.KnockInObservationInterval)
			c.kiSteps, err = MapObservations(times, g.TimeStep(), g.TimeSteps())
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *AutocallableCondition) SetTerminalCondition(g *Grid, _ Valuation) {
	M := g.TimeSteps()
	for j, s := range g.Prices {
		g.Values[M][j] = c.ExpiryValue(s)
	}
}

func (c *AutocallableCondition) SetBoundaryConditions(g *Grid, v Valuation) {
	M := g.TimeSteps()
	N := g.PriceSteps()
	tau := g.TimeToExpiry()
	r := v.Model.RiskFreeRate

	for i := 0; i <= M; i++ {
		t := g.Times[i]
		rem := tau - t

		// Upper extreme: the note knocks out at the next observation, paying
		// the coupon accrued to that date; between observations the value is
		// the discounted next payment.
		g.Values[i][N] = c.discountedNextKnockOut(t, tau, r)

		// Lower extreme: a knocked-in (or about-to-knock-in) note is a total
		// loss at zero; a pure knock-out note limps to the minimal coupon.
		if c.knockedIn || c.note.HasKnockIn() {
			g.Values[i][0] = -math.Exp(-r * rem)
		} else {
			g.Values[i][0] = c.note.MinimalCouponRate * c.accrualTotal * math.Exp(-r*rem)
		}
	}
}

// discountedNextKnockOut returns the present value, at grid time t, of the
// coupon paid on the first observation at or after t.
func (c *AutocallableCondition) discountedNextKnockOut(t, tau, r float64) float64 {
	i := sort.SearchFloat64s(c.koYears, t-1e-12)
	if i >= len(c.koYears) {
		// Past the last observation: the maturity payment remains.
		return c.note.CouponRate * c.accrualTotal * math.Exp(-r*(tau-t))
	}
	return c.note.CouponRate * c.koAccrual[i] * math.Exp(-r*(c.koYears[i]-t))
}

func (c *AutocallableCondition) ApplyStepConditions(g *Grid, _ Valuation, step int) {
	row := g.Values[step]
	if idx, ok := c.koSteps[step]; ok {
		payment := c.note.CouponRate * c.koAccrual[idx]
		for j, s := range g.Prices {
			if s >= c.note.KnockOutPrice {
				row[j] = payment
			}
		}
	}
	if c.kiGrid == nil {
		return
	}
	if c.kiEveryStep || hasStep(c.kiSteps, step) {
		ki := c.kiGrid.Values[step]
		for j, s := range g.Prices {
			if s <= c.note.KnockInPrice {
				row[j] = ki[j]
			}
		}
	}
}

func hasStep(steps map[int]int, step int) bool {
	_, ok := steps[step]
	return ok
}
