package montecarlo_test

import (
	"math"
	"testing"

	"github.com/meenmo/derivlib/analytic"
	"github.com/meenmo/derivlib/instruments/options"
	"github.com/meenmo/derivlib/montecarlo"
)

func TestEuropeanMatchesClosedForm(t *testing.T) {
	t.Parallel()

	p := montecarlo.Params{
		Spot: 100, Strike: 100, TimeToExpiry: 1,
		Volatility: 0.2, RiskFreeRate: 0.05,
		Paths: 1_000_000, Steps: 1, Seed: 42,
	}
	got, err := montecarlo.European(options.Call, p)
	if err != nil {
		t.Fatalf("European error: %v", err)
	}
	want := analytic.BlackScholes(options.Call, 100, 100, 1, 0.2, 0.05, 0)
	if rel := math.Abs(got-want) / want; rel > 0.01 {
		t.Fatalf("European call: got %.4f, closed form %.4f, rel error %.2e", got, want, rel)
	}
}

func TestEuropeanSeedReproducible(t *testing.T) {
	t.Parallel()

	p := montecarlo.Params{
		Spot: 100, Strike: 95, TimeToExpiry: 0.5,
		Volatility: 0.3, RiskFreeRate: 0.02,
		Paths: 10_000, Steps: 1, Seed: 7,
	}
	a, err := montecarlo.European(options.Put, p)
	if err != nil {
		t.Fatalf("European error: %v", err)
	}
	b, err := montecarlo.European(options.Put, p)
	if err != nil {
		t.Fatalf("European error: %v", err)
	}
	if a != b {
		t.Fatalf("same seed must reproduce the same value: %.10f vs %.10f", a, b)
	}
}

func TestEuropeanValidation(t *testing.T) {
	t.Parallel()

	cases := []montecarlo.Params{
		{Spot: 0, Strike: 100, TimeToExpiry: 1, Volatility: 0.2, Paths: 10, Steps: 1},
		{Spot: 100, Strike: 100, TimeToExpiry: 0, Volatility: 0.2, Paths: 10, Steps: 1},
		{Spot: 100, Strike: 100, TimeToExpiry: 1, Volatility: -0.2, Paths: 10, Steps: 1},
		{Spot: 100, Strike: 100, TimeToExpiry: 1, Volatility: 0.2, Paths: 1, Steps: 1},
	}
	for i, p := range cases {
		if _, err := montecarlo.European(options.Call, p); err == nil {
			t.Fatalf("case %d: expected a validation error", i)
		}
	}
}

func TestLSMAmericanPutReference(t *testing.T) {
	t.Parallel()

	// Longstaff-Schwartz (2001), table 1: S=36, K=40, r=6%, sigma=20%, T=1.
	got, err := montecarlo.NewLSMPricer(2).Value(options.Put, montecarlo.Params{
		Spot: 36, Strike: 40, TimeToExpiry: 1,
		Volatility: 0.2, RiskFreeRate: 0.06,
		Paths: 100_000, Steps: 50, Seed: 42,
	})
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}
	if math.Abs(got-4.478) > 0.06 {
		t.Fatalf("LSM American put: got %.4f, reference 4.478", got)
	}
}

func TestLSMDominatesEuropean(t *testing.T) {
	t.Parallel()

	p := montecarlo.Params{
		Spot: 90, Strike: 100, TimeToExpiry: 1,
		Volatility: 0.25, RiskFreeRate: 0.05,
		Paths: 50_000, Steps: 50, Seed: 11,
	}
	american, err := montecarlo.NewLSMPricer(3).Value(options.Put, p)
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}
	european := analytic.BlackScholes(options.Put, 90, 100, 1, 0.25, 0.05, 0)
	// Allow a small sampling margin on the dominance bound.
	if american < european-0.05 {
		t.Fatalf("American %.4f materially below European %.4f", american, european)
	}
}
