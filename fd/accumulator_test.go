package fd_test

import (
	"math"
	"testing"

	"github.com/meenmo/derivlib/fd"
	"github.com/meenmo/derivlib/instruments/notes"
)

func monthlyAccumulator(strike, knockOut, acceleration float64) notes.Accumulator {
	return notes.Accumulator{
		StrikePrice:         strike,
		KnockOutPrice:       knockOut,
		Acceleration:        acceleration,
		ObservationInterval: 1.0 / 12,
		EffectiveDate:       testEffective,
		ExpirationDate:      testExpiration,
	}
}

func TestAccumulatorFarBarrierReducesToForwardStrip(t *testing.T) {
	t.Parallel()

	// With the barrier 8x above the spot and low volatility, knock-out and
	// accelerated accrual are both negligible: each of the 13 observations
	// (t=0 through expiry) buys one forward settling at expiry, worth
	// S0 - K*exp(-r*tau) today.
	acc := monthlyAccumulator(50, 800, 2)
	cond, err := fd.NewAccumulatorCondition(acc)
	if err != nil {
		t.Fatalf("NewAccumulatorCondition error: %v", err)
	}
	engine, err := fd.NewEngine(fd.CrankNicolson, 1000, 1200)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	got, err := engine.Value(cond, fd.Valuation{
		Date:  testEffective,
		Spot:  100,
		Model: fd.Model{Volatility: 0.1, RiskFreeRate: 0.02},
	})
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}

	want := 13 * (100 - 50*math.Exp(-0.02))
	if rel := math.Abs(got-want) / want; rel > 0.015 {
		t.Fatalf("far-barrier accumulator: got %.4f, forward strip %.4f, rel error %.2e", got, want, rel)
	}
}

func TestAccumulatorKnockOutCapsValue(t *testing.T) {
	t.Parallel()

	v := fd.Valuation{
		Date:  testEffective,
		Spot:  100,
		Model: fd.Model{Volatility: 0.2, RiskFreeRate: 0.02},
	}
	value := func(knockOut float64) float64 {
		cond, err := fd.NewAccumulatorCondition(monthlyAccumulator(95, knockOut, 2))
		if err != nil {
			t.Fatalf("NewAccumulatorCondition error: %v", err)
		}
		engine, err := fd.NewEngine(fd.CrankNicolson, 1000, 1200)
		if err != nil {
			t.Fatalf("NewEngine error: %v", err)
		}
		got, err := engine.Value(cond, v)
		if err != nil {
			t.Fatalf("Value error: %v", err)
		}
		return got
	}

	// A nearer barrier cancels more of the remaining schedule.
	near := value(110)
	far := value(150)
	if near >= far {
		t.Fatalf("knock-out at 110 should cap value below knock-out at 150: %.4f vs %.4f", near, far)
	}
}

func TestAccumulatorExpiryValue(t *testing.T) {
	t.Parallel()

	cond, err := fd.NewAccumulatorCondition(monthlyAccumulator(50, 120, 2))
	if err != nil {
		t.Fatalf("NewAccumulatorCondition error: %v", err)
	}
	engine, err := fd.NewEngine(fd.CrankNicolson, 100, 100)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	m := fd.Model{Volatility: 0.2, RiskFreeRate: 0.02}

	cases := []struct {
		name string
		spot float64
		want float64
	}{
		{"above strike buys one unit", 60, 10},
		{"below strike buys accelerated units", 40, 2 * (40 - 50)},
		{"at or above the barrier is cancelled", 120, 0},
	}
	for _, tc := range cases {
		got, err := engine.Value(cond, fd.Valuation{Date: testExpiration, Spot: tc.spot, Model: m})
		if err != nil {
			t.Fatalf("%s: Value error: %v", tc.name, err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("%s: got %.6f, want %.6f", tc.name, got, tc.want)
		}
	}
}
