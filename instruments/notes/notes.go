package notes

import (
	"fmt"
	"time"

	"github.com/meenmo/derivlib/calendar"
	"github.com/meenmo/derivlib/utils"
)

// Autocallable is a structured note that redeems early with an accrued coupon
// when the underlying closes at or above the knock-out price on a scheduled
// observation date. An optional knock-in barrier exposes the holder to the
// underlying's downside once touched.
//
// Values are quoted in excess-over-par units per unit notional: the engine
// returns the coupon/loss overlay, not the principal redemption.
type Autocallable struct {
	// InitialPrice is the underlying fixing at issue; payoffs are measured
	// against it.
	InitialPrice float64
	// KnockOutPrice triggers early redemption on observation dates.
	KnockOutPrice float64
	// KnockInPrice activates downside exposure when touched on a knock-in
	// observation. Zero disables the knock-in feature.
	KnockInPrice float64
	// CouponRate is the annualized coupon, e.g. 0.0845 for 8.45% p.a.
	CouponRate float64
	// MinimalCouponRate accrues when the note reaches maturity without
	// knocking out or in.
	MinimalCouponRate float64
	EffectiveDate     time.Time
	ExpirationDate    time.Time
	// ObservationDates are the knock-out observation dates, ascending. The
	// expiration date is conventionally the last observation.
	ObservationDates []time.Time
	// KnockInObservationInterval is the year fraction between knock-in
	// observations (1/365 for daily monitoring). Zero observes the knock-in
	// barrier on every grid step.
	KnockInObservationInterval float64
}

// HasKnockIn reports whether the note carries a knock-in barrier.
func (n Autocallable) HasKnockIn() bool { return n.KnockInPrice > 0 }

// Validate checks the contract terms.
func (n Autocallable) Validate() error {
	if n.InitialPrice <= 0 {
		return fmt.Errorf("Autocallable: initial price must be positive, got %g", n.InitialPrice)
	}
	if n.KnockOutPrice <= 0 {
		return fmt.Errorf("Autocallable: knock-out price must be positive, got %g", n.KnockOutPrice)
	}
	if n.KnockInPrice < 0 {
		return fmt.Errorf("Autocallable: knock-in price must be non-negative, got %g", n.KnockInPrice)
	}
	if n.KnockInPrice > 0 && n.KnockInPrice >= n.KnockOutPrice {
		return fmt.Errorf("Autocallable: knock-in price %g must lie below the knock-out price %g",
			n.KnockInPrice, n.KnockOutPrice)
	}
	if n.CouponRate < 0 || n.MinimalCouponRate < 0 {
		return fmt.Errorf("Autocallable: coupon rates must be non-negative")
	}
	if n.KnockInObservationInterval < 0 {
		return fmt.Errorf("Autocallable: knock-in observation interval must be non-negative")
	}
	if n.EffectiveDate.IsZero() || n.ExpirationDate.IsZero() {
		return fmt.Errorf("Autocallable: effective and expiration dates are required")
	}
	if !n.ExpirationDate.After(n.EffectiveDate) {
		return fmt.Errorf("Autocallable: expiration must be after effective")
	}
	if len(n.ObservationDates) == 0 {
		return fmt.Errorf("Autocallable: at least one observation date is required")
	}
	prev := n.EffectiveDate
	for i, d := range n.ObservationDates {
		if !d.After(prev) {
			return fmt.Errorf("Autocallable: observation dates must be ascending and after the effective date (index %d)", i)
		}
		if d.After(n.ExpirationDate) {
			return fmt.Errorf("Autocallable: observation date %s lies after expiration", d.Format("2006-01-02"))
		}
		prev = d
	}
	return nil
}

// Accumulator is a daily-accrual contract: on every observation day before a
// knock-out the holder commits to one forward purchase at the strike, and to
// Acceleration purchases when the underlying is below the strike.
type Accumulator struct {
	StrikePrice   float64
	KnockOutPrice float64
	// Acceleration is the purchase multiplier applied below the strike,
	// conventionally 2.
	Acceleration float64
	// ObservationInterval is the year fraction between accrual observations,
	// conventionally 1/365.
	ObservationInterval float64
	EffectiveDate       time.Time
	ExpirationDate      time.Time
}

// Validate checks the contract terms.
func (a Accumulator) Validate() error {
	if a.StrikePrice <= 0 {
		return fmt.Errorf("Accumulator: strike must be positive, got %g", a.StrikePrice)
	}
	if a.KnockOutPrice <= a.StrikePrice {
		return fmt.Errorf("Accumulator: knock-out price %g must lie above the strike %g",
			a.KnockOutPrice, a.StrikePrice)
	}
	if a.Acceleration < 1 {
		return fmt.Errorf("Accumulator: acceleration must be at least 1, got %g", a.Acceleration)
	}
	if a.ObservationInterval <= 0 {
		return fmt.Errorf("Accumulator: observation interval must be positive, got %g", a.ObservationInterval)
	}
	if a.EffectiveDate.IsZero() || a.ExpirationDate.IsZero() {
		return fmt.Errorf("Accumulator: effective and expiration dates are required")
	}
	if !a.ExpirationDate.After(a.EffectiveDate) {
		return fmt.Errorf("Accumulator: expiration must be after effective")
	}
	return nil
}

// QuarterlyObservations builds knock-out observation dates every three months
// after the effective date through expiration, adjusted Modified Following on
// the given calendar. The expiration date itself is always the last entry.
func QuarterlyObservations(cal calendar.CalendarID, effective, expiration time.Time) []time.Time {
	var dates []time.Time
	for i := 1; ; i++ {
		d := calendar.Adjust(cal, utils.AddMonth(effective, 3*i))
		if !d.Before(expiration) {
			break
		}
		dates = append(dates, d)
	}
	dates = append(dates, expiration)
	return dates
}
