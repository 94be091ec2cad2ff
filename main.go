package main

import (
	"fmt"
	"time"

	"github.com/meenmo/derivlib/analytic"
	"github.com/meenmo/derivlib/fd"
	"github.com/meenmo/derivlib/instruments/notes"
	"github.com/meenmo/derivlib/instruments/options"
)

func main() {
	effective := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expiration := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	valuation := fd.Valuation{
		Date: effective,
		Spot: 100,
		Model: fd.Model{
			Volatility:   0.25,
			RiskFreeRate: 0.03,
		},
	}

	engine, err := fd.NewEngine(fd.CrankNicolson, 1000, 1000)
	if err != nil {
		panic(err)
	}

	put, err := fd.NewVanillaCondition(options.Vanilla{
		Right:          options.Put,
		Exercise:       options.American,
		Strike:         100,
		EffectiveDate:  effective,
		ExpirationDate: expiration,
	})
	if err != nil {
		panic(err)
	}
	americanPut, err := engine.Value(put, valuation)
	if err != nil {
		panic(err)
	}

	note, err := fd.NewAutocallableCondition(notes.Autocallable{
		InitialPrice:      100,
		KnockOutPrice:     100,
		KnockInPrice:      60,
		CouponRate:        0.0845,
		MinimalCouponRate: 0.02,
		EffectiveDate:     effective,
		ExpirationDate:    expiration,
		ObservationDates: []time.Time{
			time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			expiration,
		},
	})
	if err != nil {
		panic(err)
	}
	autocall, err := engine.Value(note, valuation)
	if err != nil {
		panic(err)
	}

	european := analytic.BlackScholes(options.Put, valuation.Spot, 100, 1,
		valuation.Model.Volatility, valuation.Model.RiskFreeRate, 0)

	fmt.Printf("European put (closed form): %.4f\n", european)
	fmt.Printf("American put (FD grid):     %.4f\n", americanPut)
	fmt.Printf("Autocallable note:          %.4f\n", autocall)
}
