package benchmark

import (
	"time"

	"github.com/meenmo/derivlib/analytic"
	"github.com/meenmo/derivlib/fd"
	"github.com/meenmo/derivlib/instruments/notes"
	"github.com/meenmo/derivlib/instruments/options"
	"github.com/meenmo/derivlib/montecarlo"
)

var (
	presetEffective  = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	presetExpiration = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	presetModel = fd.Model{Volatility: 0.2, RiskFreeRate: 0.05}
)

func presetEngine(scheme fd.Scheme, priceSteps, timeSteps int) *fd.Engine {
	e, err := fd.NewEngine(scheme, priceSteps, timeSteps)
	if err != nil {
		panic(err)
	}
	return e
}

func vanillaCase(name string, scheme fd.Scheme, right options.Right, exercise options.Exercise,
	spot, strike, reference, tolerance float64, model fd.Model) Case {
	return Case{
		Name:      name,
		Reference: reference,
		Tolerance: tolerance,
		Value: func() (float64, error) {
			cond, err := fd.NewVanillaCondition(options.Vanilla{
				Right:          right,
				Exercise:       exercise,
				Strike:         strike,
				EffectiveDate:  presetEffective,
				ExpirationDate: presetExpiration,
			})
			if err != nil {
				return 0, err
			}
			return presetEngine(scheme, 1000, 1000).Value(cond, fd.Valuation{
				Date:  presetEffective,
				Spot:  spot,
				Model: model,
			})
		},
	}
}

// barrierParityCase sums a knock-out and the matching knock-in (zero rebate)
// and compares against the vanilla closed form they must reassemble.
func barrierParityCase(name string, out, in options.BarrierType, right options.Right,
	spot, strike, level float64) Case {
	m := presetModel
	value := func(bt options.BarrierType) (float64, error) {
		cond, err := fd.NewBarrierCondition(options.Barrier{
			Right:               right,
			Type:                bt,
			Strike:              strike,
			Level:               level,
			ObservationInterval: 1.0 / 52,
			EffectiveDate:       presetEffective,
			ExpirationDate:      presetExpiration,
		})
		if err != nil {
			return 0, err
		}
		return presetEngine(fd.CrankNicolson, 1000, 1000).Value(cond, fd.Valuation{
			Date:  presetEffective,
			Spot:  spot,
			Model: m,
		})
	}
	ref := analytic.BlackScholes(right, spot, strike, 1, m.Volatility, m.RiskFreeRate, m.DividendYield)
	return Case{
		Name:      name,
		Reference: ref,
		Tolerance: 0.02 * ref,
		Value: func() (float64, error) {
			vOut, err := value(out)
			if err != nil {
				return 0, err
			}
			vIn, err := value(in)
			if err != nil {
				return 0, err
			}
			return vOut + vIn, nil
		},
	}
}

// Presets are the standing reference scenarios. References come from the
// Black-Scholes closed form where one exists, from the Longstaff-Schwartz
// (2001) table for the American put, and from a worked knock-out settlement
// for the autocallable.
func Presets() []Case {
	m := presetModel
	bsCall := analytic.BlackScholes(options.Call, 100, 100, 1, m.Volatility, m.RiskFreeRate, m.DividendYield)
	bsPut := analytic.BlackScholes(options.Put, 100, 100, 1, m.Volatility, m.RiskFreeRate, m.DividendYield)

	cases := []Case{
		vanillaCase("european-call/crank-nicolson", fd.CrankNicolson,
			options.Call, options.European, 100, 100, bsCall, 0.0005*bsCall, m),
		vanillaCase("european-put/implicit-euler", fd.ImplicitEuler,
			options.Put, options.European, 100, 100, bsPut, 0.002*bsPut, m),
		// Longstaff-Schwartz (2001), table 1: S=36, K=40, r=6%, sigma=20%, T=1.
		vanillaCase("american-put/crank-nicolson", fd.CrankNicolson,
			options.Put, options.American, 36, 40, 4.478, 0.02,
			fd.Model{Volatility: 0.2, RiskFreeRate: 0.06}),
		barrierParityCase("barrier-parity/up-call", options.UpOut, options.UpIn,
			options.Call, 100, 100, 130),
		barrierParityCase("barrier-parity/down-put", options.DownOut, options.DownIn,
			options.Put, 100, 100, 70),
		autocallableKnockOutCase(),
		Case{
			Name:      "european-call/montecarlo",
			Reference: bsCall,
			Tolerance: 0.01 * bsCall,
			Value: func() (float64, error) {
				return montecarlo.European(options.Call, montecarlo.Params{
					Spot: 100, Strike: 100, TimeToExpiry: 1,
					Volatility: m.Volatility, RiskFreeRate: m.RiskFreeRate,
					Paths: 2_000_000, Steps: 1, Seed: 42,
				})
			},
		},
		Case{
			Name:      "american-put/longstaff-schwartz",
			Reference: 4.478,
			Tolerance: 0.05,
			Value: func() (float64, error) {
				return montecarlo.NewLSMPricer(2).Value(options.Put, montecarlo.Params{
					Spot: 36, Strike: 40, TimeToExpiry: 1,
					Volatility: 0.2, RiskFreeRate: 0.06,
					Paths: 100_000, Steps: 50, Seed: 42,
				})
			},
		},
	}
	return cases
}

// autocallableKnockOutCase values a note on a knock-out observation date with
// the spot at the barrier: the answer is the coupon accrued to that date,
// 8.45% * 91/365, paid immediately.
func autocallableKnockOutCase() Case {
	obs := []time.Time{
		time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		presetExpiration,
	}
	return Case{
		Name:      "autocallable/knock-out-observation",
		Reference: 0.0845 * 91 / 365,
		Tolerance: 5e-4,
		Value: func() (float64, error) {
			cond, err := fd.NewAutocallableCondition(notes.Autocallable{
				InitialPrice:      100,
				KnockOutPrice:     100,
				KnockInPrice:      60,
				CouponRate:        0.0845,
				MinimalCouponRate: 0.02,
				EffectiveDate:     presetEffective,
				ExpirationDate:    presetExpiration,
				ObservationDates:  obs,
			})
			if err != nil {
				return 0, err
			}
			return presetEngine(fd.CrankNicolson, 1000, 1000).Value(cond, fd.Valuation{
				Date:  obs[0],
				Spot:  100,
				Model: fd.Model{Volatility: 0.25, RiskFreeRate: 0.03},
			})
		},
	}
}
