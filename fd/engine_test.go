package fd_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/derivlib/analytic"
	"github.com/meenmo/derivlib/fd"
	"github.com/meenmo/derivlib/instruments/options"
)

var (
	testEffective  = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	testExpiration = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) // 365 days, tau = 1.0
)

func testVanilla(t *testing.T, right options.Right, exercise options.Exercise, strike float64) *fd.VanillaCondition {
	t.Helper()
	cond, err := fd.NewVanillaCondition(options.Vanilla{
		Right:          right,
		Exercise:       exercise,
		Strike:         strike,
		EffectiveDate:  testEffective,
		ExpirationDate: testExpiration,
	})
	if err != nil {
		t.Fatalf("NewVanillaCondition error: %v", err)
	}
	return cond
}

func TestEuropeanCallMatchesClosedForm(t *testing.T) {
	t.Parallel()

	v := fd.Valuation{
		Date:  testEffective,
		Spot:  100,
		Model: fd.Model{Volatility: 0.2, RiskFreeRate: 0.05},
	}
	want := analytic.BlackScholes(options.Call, 100, 100, 1, 0.2, 0.05, 0)

	cases := []struct {
		scheme     fd.Scheme
		priceSteps int
		timeSteps  int
		relTol     float64
	}{
		// The explicit grid must stay coarse in price to satisfy the
		// stability bound.
		{fd.ExplicitEuler, 100, 2000, 1e-2},
		{fd.ImplicitEuler, 1000, 1000, 2e-3},
		{fd.CrankNicolson, 1000, 1000, 5e-4},
	}
	for _, tc := range cases {
		engine, err := fd.NewEngine(tc.scheme, tc.priceSteps, tc.timeSteps)
		if err != nil {
			t.Fatalf("NewEngine(%s) error: %v", tc.scheme, err)
		}
		got, err := engine.Value(testVanilla(t, options.Call, options.European, 100), v)
		if err != nil {
			t.Fatalf("Value(%s) error: %v", tc.scheme, err)
		}
		if rel := math.Abs(got-want) / want; rel > tc.relTol {
			t.Fatalf("%s: got %.6f, closed form %.6f, rel error %.2e > %.2e",
				tc.scheme, got, want, rel, tc.relTol)
		}
	}
}

func TestEuropeanPutCallParity(t *testing.T) {
	t.Parallel()

	v := fd.Valuation{
		Date:  testEffective,
		Spot:  105,
		Model: fd.Model{Volatility: 0.25, RiskFreeRate: 0.03, DividendYield: 0.01},
	}
	engine, err := fd.NewEngine(fd.CrankNicolson, 1000, 1000)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	call, err := engine.Value(testVanilla(t, options.Call, options.European, 100), v)
	if err != nil {
		t.Fatalf("call Value error: %v", err)
	}
	put, err := engine.Value(testVanilla(t, options.Put, options.European, 100), v)
	if err != nil {
		t.Fatalf("put Value error: %v", err)
	}

	forward := 105*math.Exp(-0.01) - 100*math.Exp(-0.03)
	if diff := math.Abs((call - put) - forward); diff > 0.01 {
		t.Fatalf("put-call parity violated: C-P = %.6f, forward = %.6f", call-put, forward)
	}
}

func TestAmericanPutReference(t *testing.T) {
	t.Parallel()

	// Longstaff-Schwartz (2001), table 1: S=36, K=40, r=6%, sigma=20%, T=1.
	v := fd.Valuation{
		Date:  testEffective,
		Spot:  36,
		Model: fd.Model{Volatility: 0.2, RiskFreeRate: 0.06},
	}
	engine, err := fd.NewEngine(fd.CrankNicolson, 1000, 1000)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	got, err := engine.Value(testVanilla(t, options.Put, options.American, 40), v)
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}
	if math.Abs(got-4.478) > 0.02 {
		t.Fatalf("American put: got %.4f, reference 4.478", got)
	}

	european, err := engine.Value(testVanilla(t, options.Put, options.European, 40), v)
	if err != nil {
		t.Fatalf("European Value error: %v", err)
	}
	if got < european {
		t.Fatalf("American put %.4f below European %.4f", got, european)
	}
}

func TestAmericanCallWithDividends(t *testing.T) {
	t.Parallel()

	// At-the-money call, sigma=30%, r=4%, q=2%, T=1. The Monte Carlo
	// (Longstaff-Schwartz) cross-check prices this at roughly 12.57.
	v := fd.Valuation{
		Date:  testEffective,
		Spot:  100,
		Model: fd.Model{Volatility: 0.3, RiskFreeRate: 0.04, DividendYield: 0.02},
	}
	engine, err := fd.NewEngine(fd.CrankNicolson, 1000, 500)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	got, err := engine.Value(testVanilla(t, options.Call, options.American, 100), v)
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}
	if rel := math.Abs(got-12.57) / 12.57; rel > 0.02 {
		t.Fatalf("American call: got %.4f, reference 12.57, rel error %.2e", got, rel)
	}
}

func TestValueAtExpirationReturnsPayoff(t *testing.T) {
	t.Parallel()

	engine, err := fd.NewEngine(fd.CrankNicolson, 100, 100)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	v := fd.Valuation{
		Date:  testExpiration,
		Spot:  117.3,
		Model: fd.Model{Volatility: 0.2, RiskFreeRate: 0.05},
	}
	got, err := engine.Value(testVanilla(t, options.Call, options.European, 100), v)
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}
	if got != 17.3 {
		t.Fatalf("expiry-date value: got %.6f, want exact intrinsic 17.3", got)
	}
}

func TestExplicitSchemeStabilityGuard(t *testing.T) {
	t.Parallel()

	// 200 price steps against 100 time steps puts dt far beyond the explicit
	// stability bound.
	engine, err := fd.NewEngine(fd.ExplicitEuler, 200, 100)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	_, err = engine.Value(testVanilla(t, options.Call, options.European, 100), fd.Valuation{
		Date:  testEffective,
		Spot:  100,
		Model: fd.Model{Volatility: 0.3, RiskFreeRate: 0.05},
	})
	if !errors.Is(err, fd.ErrUnstableScheme) {
		t.Fatalf("expected ErrUnstableScheme, got %v", err)
	}
}

func TestValueAtSpots(t *testing.T) {
	t.Parallel()

	engine, err := fd.NewEngine(fd.CrankNicolson, 1000, 500)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	cond := testVanilla(t, options.Call, options.European, 100)
	v := fd.Valuation{
		Date:  testEffective,
		Spot:  100,
		Model: fd.Model{Volatility: 0.2, RiskFreeRate: 0.05},
	}

	if _, err := engine.ValueAtSpots(cond, v, []float64{90, 110}); err == nil {
		t.Fatal("expected an error for fewer than 3 query spots")
	}

	spots := []float64{80, 90, 100, 110, 120}
	batch, err := engine.ValueAtSpots(cond, v, spots)
	if err != nil {
		t.Fatalf("ValueAtSpots error: %v", err)
	}
	for i := 1; i < len(batch); i++ {
		if batch[i] <= batch[i-1] {
			t.Fatalf("call value not increasing in spot: %.6f at %.0f vs %.6f at %.0f",
				batch[i], spots[i], batch[i-1], spots[i-1])
		}
	}
	for i, s := range spots {
		want := analytic.BlackScholes(options.Call, s, 100, 1, 0.2, 0.05, 0)
		if math.Abs(batch[i]-want) > 0.02 {
			t.Fatalf("spot %.0f: got %.4f, closed form %.4f", s, batch[i], want)
		}
	}
}

func TestValueRejectsBadValuations(t *testing.T) {
	t.Parallel()

	engine, err := fd.NewEngine(fd.CrankNicolson, 100, 100)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	cond := testVanilla(t, options.Call, options.European, 100)
	m := fd.Model{Volatility: 0.2, RiskFreeRate: 0.05}

	cases := []struct {
		name string
		v    fd.Valuation
	}{
		{"non-positive spot", fd.Valuation{Date: testEffective, Spot: 0, Model: m}},
		{"negative volatility", fd.Valuation{Date: testEffective, Spot: 100, Model: fd.Model{Volatility: -0.1}}},
		{"valuation before effective", fd.Valuation{Date: testEffective.AddDate(0, -1, 0), Spot: 100, Model: m}},
		{"valuation after expiration", fd.Valuation{Date: testExpiration.AddDate(0, 1, 0), Spot: 100, Model: m}},
	}
	for _, tc := range cases {
		if _, err := engine.Value(cond, tc.v); err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
	}
}

func TestNewEngineValidation(t *testing.T) {
	t.Parallel()

	if _, err := fd.NewEngine(fd.Scheme(9), 100, 100); err == nil {
		t.Fatal("expected an error for an invalid scheme")
	}
	if _, err := fd.NewEngine(fd.CrankNicolson, 1, 100); err == nil {
		t.Fatal("expected an error for too few price steps")
	}
	if _, err := fd.NewEngine(fd.CrankNicolson, 100, 1); err == nil {
		t.Fatal("expected an error for too few time steps")
	}
}
