package analytic_test

import (
	"math"
	"testing"

	"github.com/meenmo/derivlib/analytic"
	"github.com/meenmo/derivlib/instruments/options"
)

func TestBlackScholesTextbookValues(t *testing.T) {
	t.Parallel()

	// Hull, Options, Futures and Other Derivatives: S=42, K=40, r=10%,
	// sigma=20%, T=0.5.
	call := analytic.BlackScholes(options.Call, 42, 40, 0.5, 0.2, 0.1, 0)
	if math.Abs(call-4.759) > 1e-3 {
		t.Fatalf("call: got %.4f, want 4.759", call)
	}
	put := analytic.BlackScholes(options.Put, 42, 40, 0.5, 0.2, 0.1, 0)
	if math.Abs(put-0.808) > 1e-3 {
		t.Fatalf("put: got %.4f, want 0.808", put)
	}
}

func TestBlackScholesPutCallParity(t *testing.T) {
	t.Parallel()

	s, k, tau, vol, r, q := 95.0, 100.0, 0.75, 0.3, 0.04, 0.015
	call := analytic.BlackScholes(options.Call, s, k, tau, vol, r, q)
	put := analytic.BlackScholes(options.Put, s, k, tau, vol, r, q)
	forward := s*math.Exp(-q*tau) - k*math.Exp(-r*tau)
	if math.Abs((call-put)-forward) > 1e-10 {
		t.Fatalf("parity violated: C-P=%.10f, forward=%.10f", call-put, forward)
	}
}

func TestBlackScholesDegenerateLimits(t *testing.T) {
	t.Parallel()

	if got := analytic.BlackScholes(options.Call, 120, 100, 0, 0.2, 0.05, 0); got != 20 {
		t.Fatalf("expired call: got %.6f, want intrinsic 20", got)
	}
	// Zero volatility prices the discounted forward payoff.
	want := 100*math.Exp(-0.01) - 90*math.Exp(-0.05)
	if got := analytic.BlackScholes(options.Call, 100, 90, 1, 0, 0.05, 0.01); math.Abs(got-want) > 1e-12 {
		t.Fatalf("zero-vol call: got %.6f, want %.6f", got, want)
	}
}

func TestCashOrNothingSplitsDiscountBond(t *testing.T) {
	t.Parallel()

	// A digital call plus a digital put with the same payout is a zero-coupon
	// bond over that payout.
	s, k, tau, vol, r, q := 100.0, 105.0, 1.0, 0.25, 0.03, 0.0
	call := analytic.CashOrNothing(options.Call, s, k, tau, vol, r, q, 10)
	put := analytic.CashOrNothing(options.Put, s, k, tau, vol, r, q, 10)
	want := 10 * math.Exp(-r*tau)
	if math.Abs(call+put-want) > 1e-10 {
		t.Fatalf("digital split: call %.6f + put %.6f != %.6f", call, put, want)
	}
}

func TestVegaMatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	s, k, tau, vol, r, q := 100.0, 110.0, 0.5, 0.22, 0.02, 0.01
	h := 1e-5
	bump := (analytic.BlackScholes(options.Call, s, k, tau, vol+h, r, q) -
		analytic.BlackScholes(options.Call, s, k, tau, vol-h, r, q)) / (2 * h)
	if got := analytic.Vega(s, k, tau, vol, r, q); math.Abs(got-bump) > 1e-5 {
		t.Fatalf("vega: analytic %.8f, finite difference %.8f", got, bump)
	}
}

func TestSolveImpliedVolatilityRoundTrip(t *testing.T) {
	t.Parallel()

	for _, vol := range []float64{0.08, 0.2, 0.45} {
		price := analytic.BlackScholes(options.Put, 100, 110, 0.75, vol, 0.03, 0.01)
		res, err := analytic.SolveImpliedVolatility(analytic.ImpliedVolInput{
			Right:         options.Put,
			Spot:          100,
			Strike:        110,
			TimeToExpiry:  0.75,
			RiskFreeRate:  0.03,
			DividendYield: 0.01,
			Price:         price,
		})
		if err != nil {
			t.Fatalf("vol %.2f: SolveImpliedVolatility error: %v", vol, err)
		}
		if math.Abs(res.Volatility-vol) > 1e-7 {
			t.Fatalf("vol %.2f: recovered %.8f", vol, res.Volatility)
		}
	}
}

func TestSolveImpliedVolatilityRejectsArbitragePrices(t *testing.T) {
	t.Parallel()

	in := analytic.ImpliedVolInput{
		Right:        options.Call,
		Spot:         100,
		Strike:       100,
		TimeToExpiry: 1,
		RiskFreeRate: 0.05,
	}

	in.Price = 1e-6 // below the zero-vol floor
	if _, err := analytic.SolveImpliedVolatility(in); err == nil {
		t.Fatal("expected an error for a price below the arbitrage floor")
	}
	in.Price = 150 // above the spot ceiling
	if _, err := analytic.SolveImpliedVolatility(in); err == nil {
		t.Fatal("expected an error for a price above the arbitrage ceiling")
	}
}
