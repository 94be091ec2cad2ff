package fd

import (
	"fmt"
	"time"

	"github.com/meenmo/derivlib/utils"
)

// Model holds the flat Black-Scholes-Merton market parameters.
type Model struct {
	// Volatility is the annualized lognormal volatility, >= 0.
	Volatility float64
	// RiskFreeRate and DividendYield are continuously compounded.
	RiskFreeRate  float64
	DividendYield float64
}

// Valuation is one pricing request: where and when the instrument is valued.
type Valuation struct {
	// Date is the valuation date; it must lie within the instrument's
	// [effective, expiration] range.
	Date time.Time
	// Spot is the current underlying price, > 0.
	Spot  float64
	Model Model
}

// Domain is the solve region a condition policy requests for one valuation.
type Domain struct {
	MinPrice float64
	MaxPrice float64
	// TimeToExpiry is (expiration - valuation) / 365 in calendar days.
	TimeToExpiry float64
}

// ConditionPolicy supplies the instrument-specific hooks of the solver. The
// engine never branches on instrument type: everything family-specific lives
// behind these six operations.
//
// A policy is bound to a single valuation at a time; Prepare may cache
// per-valuation state (observation mappings, accrual tables) that the later
// hooks read.
type ConditionPolicy interface {
	// Domain validates the valuation request against the contract terms and
	// returns the price span and remaining time to expiry.
	Domain(v Valuation) (Domain, error)
	// ExpiryValue is the contractual payoff at expiration for a given spot.
	ExpiryValue(spot float64) float64
	// Prepare runs once per valuation after the grid nodes are laid out and
	// before any stepping; observation schedules are mapped here.
	Prepare(g *Grid, v Valuation) error
	// SetTerminalCondition fills the last grid row with the expiry payoff.
	SetTerminalCondition(g *Grid, v Valuation)
	// SetBoundaryConditions fills the first and last price columns for every
	// time row before the backward sweep starts.
	SetBoundaryConditions(g *Grid, v Valuation)
	// ApplyStepConditions mutates row step in place: early exercise, barrier
	// hits, coupon payments, knock-in substitution.
	ApplyStepConditions(g *Grid, v Valuation, step int)
}

// auxiliarySolver is implemented by policies that need a second grid solved
// first: knock-in notes substitute the knocked-in surface, accumulators read
// the unit-forward surface. A nil auxiliary policy means no second pass for
// this contract.
type auxiliarySolver interface {
	auxiliaryPolicy() ConditionPolicy
	attachAuxiliaryGrid(g *Grid)
}

// Engine is a reusable backward PDE solver. All buffers are sized at
// construction and overwritten on every Value call, so a single instance must
// not be shared across concurrent valuations; give each goroutine its own.
type Engine struct {
	scheme     Scheme
	priceSteps int
	timeSteps  int

	grid    *Grid
	aux     *Grid // lazily allocated for two-pass policies
	m1, m2  tridiagonal
	rhs     []float64
	scratch []float64
}

// NewEngine builds an engine with fixed grid resolution. Both step counts must
// be at least 2.
func NewEngine(scheme Scheme, priceSteps, timeSteps int) (*Engine, error) {
	if !scheme.valid() {
		return nil, fmt.Errorf("NewEngine: invalid scheme %d", int(scheme))
	}
	if priceSteps < 2 || timeSteps < 2 {
		return nil, fmt.Errorf("NewEngine: need at least 2 price and time steps, got %dx%d", priceSteps, timeSteps)
	}
	n := priceSteps - 1
	return &Engine{
		scheme:     scheme,
		priceSteps: priceSteps,
		timeSteps:  timeSteps,
		grid:       newGrid(priceSteps, timeSteps),
		m1:         newTridiagonal(n),
		m2:         newTridiagonal(n),
		rhs:        make([]float64, n),
		scratch:    make([]float64, n),
	}, nil
}

// Scheme returns the time discretization the engine was built with.
func (e *Engine) Scheme() Scheme { return e.scheme }

// Value prices one instrument and returns its fair value at the spot. Valuing
// exactly on the expiration date bypasses the grid and returns the contractual
// expiry payoff.
func (e *Engine) Value(p ConditionPolicy, v Valuation) (float64, error) {
	dom, err := e.begin(p, v)
	if err != nil {
		return 0, err
	}
	if dom.TimeToExpiry == 0 {
		return p.ExpiryValue(v.Spot), nil
	}
	if err := e.solve(p, v, dom, e.grid); err != nil {
		return 0, err
	}
	return utils.LinearInterpolate(v.Spot, e.grid.Prices, e.grid.Values[0])
}

// ValueAtSpots prices the instrument at several spot prices from a single grid
// solve by interpolating the valuation-date row, avoiding one re-solve per
// query. At least 3 query spots are required.
func (e *Engine) ValueAtSpots(p ConditionPolicy, v Valuation, spots []float64) ([]float64, error) {
	if len(spots) < 3 {
		return nil, fmt.Errorf("ValueAtSpots: need at least 3 spot prices, got %d", len(spots))
	}
	dom, err := e.begin(p, v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(spots))
	if dom.TimeToExpiry == 0 {
		for i, s := range spots {
			out[i] = p.ExpiryValue(s)
		}
		return out, nil
	}
	if err := e.solve(p, v, dom, e.grid); err != nil {
		return nil, err
	}
	for i, s := range spots {
		out[i], err = utils.LinearInterpolate(s, e.grid.Prices, e.grid.Values[0])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Engine) begin(p ConditionPolicy, v Valuation) (Domain, error) {
	if v.Spot <= 0 {
		return Domain{}, fmt.Errorf("fd: spot price must be positive, got %g", v.Spot)
	}
	if v.Model.Volatility < 0 {
		return Domain{}, fmt.Errorf("fd: volatility must be non-negative, got %g", v.Model.Volatility)
	}
	dom, err := p.Domain(v)
	if err != nil {
		return Domain{}, err
	}
	if dom.MaxPrice <= dom.MinPrice {
		return Domain{}, fmt.Errorf("fd: degenerate price domain [%g, %g]", dom.MinPrice, dom.MaxPrice)
	}
	return dom, nil
}

// solve runs one full backward sweep into g. Policies needing an auxiliary
// surface get it solved first on the same domain, so node indices line up for
// substitution.
func (e *Engine) solve(p ConditionPolicy, v Valuation, dom Domain, g *Grid) error {
	if as, ok := p.(auxiliarySolver); ok {
		if inner := as.auxiliaryPolicy(); inner != nil {
			if e.aux == nil {
				e.aux = newGrid(e.priceSteps, e.timeSteps)
			}
			if err := e.solve(inner, v, dom, e.aux); err != nil {
				return err
			}
			as.attachAuxiliaryGrid(e.aux)
		}
	}

	g.reset(dom.MinPrice, dom.MaxPrice, dom.TimeToExpiry)
	if err := buildOperators(e.scheme, v.Model, g, &e.m1, &e.m2); err != nil {
		return err
	}
	if err := p.Prepare(g, v); err != nil {
		return err
	}
	p.SetTerminalCondition(g, v)
	p.SetBoundaryConditions(g, v)

	M := e.timeSteps
	N := e.priceSteps
	n := N - 1
	for i := M - 1; i >= 0; i-- {
		// Conditions at row i+1 first, so row i is computed from values
		// consistent with that instant.
		p.ApplyStepConditions(g, v, i+1)

		prev := g.Values[i+1]
		row := g.Values[i]
		e.m2.multiply(prev[1:N], e.rhs)
		e.rhs[0] += e.m2.lower[0]*prev[0] - e.m1.lower[0]*row[0]
		e.rhs[n-1] += e.m2.upper[n-1]*prev[N] - e.m1.upper[n-1]*row[N]

		if e.scheme == ExplicitEuler {
			copy(row[1:N], e.rhs)
		} else {
			e.m1.solve(e.rhs, e.scratch, row[1:N])
		}
	}
	p.ApplyStepConditions(g, v, 0)
	return nil
}

// yearsToExpiry validates the valuation date against the contract window and
// returns the remaining life in years, ACT/365F.
func yearsToExpiry(v Valuation, effective, expiration time.Time) (float64, error) {
	if v.Date.Before(effective) || v.Date.After(expiration) {
		return 0, fmt.Errorf("fd: valuation date %s outside [%s, %s]",
			v.Date.Format("2006-01-02"), effective.Format("2006-01-02"), expiration.Format("2006-01-02"))
	}
	return utils.YearFraction(v.Date, expiration), nil
}
