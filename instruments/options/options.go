package options

import (
	"fmt"
	"time"
)

// Right distinguishes calls from puts.
type Right string

const (
	Call Right = "CALL"
	Put  Right = "PUT"
)

// Exercise distinguishes European from American exercise.
type Exercise string

const (
	European Exercise = "EUROPEAN"
	American Exercise = "AMERICAN"
)

// BarrierType enumerates the four single-barrier knock styles.
type BarrierType string

const (
	UpOut   BarrierType = "UP_OUT"
	DownOut BarrierType = "DOWN_OUT"
	UpIn    BarrierType = "UP_IN"
	DownIn  BarrierType = "DOWN_IN"
)

// IsKnockIn reports whether the barrier activates rather than extinguishes the payoff.
func (bt BarrierType) IsKnockIn() bool { return bt == UpIn || bt == DownIn }

// IsUp reports whether the barrier lies above the initial spot region.
func (bt BarrierType) IsUp() bool { return bt == UpOut || bt == UpIn }

func validRight(r Right) bool       { return r == Call || r == Put }
func validExercise(e Exercise) bool { return e == European || e == American }

func validDates(effective, expiration time.Time) error {
	if effective.IsZero() || expiration.IsZero() {
		return fmt.Errorf("effective and expiration dates are required")
	}
	if !expiration.After(effective) {
		return fmt.Errorf("expiration %s must be after effective %s",
			expiration.Format("2006-01-02"), effective.Format("2006-01-02"))
	}
	return nil
}

// Vanilla is a plain European or American option.
type Vanilla struct {
	Right    Right
	Exercise Exercise
	// Strike is the exercise price, in the same currency units as the spot.
	Strike         float64
	EffectiveDate  time.Time
	ExpirationDate time.Time
}

// Validate checks the contract terms.
func (o Vanilla) Validate() error {
	if !validRight(o.Right) {
		return fmt.Errorf("Vanilla: invalid right %q", o.Right)
	}
	if !validExercise(o.Exercise) {
		return fmt.Errorf("Vanilla: invalid exercise %q", o.Exercise)
	}
	if o.Strike <= 0 {
		return fmt.Errorf("Vanilla: strike must be positive, got %g", o.Strike)
	}
	if err := validDates(o.EffectiveDate, o.ExpirationDate); err != nil {
		return fmt.Errorf("Vanilla: %w", err)
	}
	return nil
}

// Digital is a European cash-or-nothing option paying Payout when it expires in
// the money.
type Digital struct {
	Right          Right
	Strike         float64
	Payout         float64
	EffectiveDate  time.Time
	ExpirationDate time.Time
}

// Validate checks the contract terms.
func (o Digital) Validate() error {
	if !validRight(o.Right) {
		return fmt.Errorf("Digital: invalid right %q", o.Right)
	}
	if o.Strike <= 0 {
		return fmt.Errorf("Digital: strike must be positive, got %g", o.Strike)
	}
	if o.Payout <= 0 {
		return fmt.Errorf("Digital: payout must be positive, got %g", o.Payout)
	}
	if err := validDates(o.EffectiveDate, o.ExpirationDate); err != nil {
		return fmt.Errorf("Digital: %w", err)
	}
	return nil
}

// Barrier is a single-barrier option, continuously or discretely monitored.
type Barrier struct {
	Right  Right
	Type   BarrierType
	Strike float64
	// Level is the barrier price.
	Level float64
	// Rebate is paid at hit for knock-out types, or at expiry for knock-in
	// types that never trigger. Zero is a plain barrier option.
	Rebate float64
	// ObservationInterval is the year fraction between barrier observations.
	// Zero means continuous monitoring.
	ObservationInterval float64
	EffectiveDate       time.Time
	ExpirationDate      time.Time
}

// Continuous reports whether the barrier is monitored continuously.
func (o Barrier) Continuous() bool { return o.ObservationInterval == 0 }

// Validate checks the contract terms.
func (o Barrier) Validate() error {
	if !validRight(o.Right) {
		return fmt.Errorf("Barrier: invalid right %q", o.Right)
	}
	switch o.Type {
	case UpOut, DownOut, UpIn, DownIn:
	default:
		return fmt.Errorf("Barrier: invalid barrier type %q", o.Type)
	}
	if o.Strike <= 0 {
		return fmt.Errorf("Barrier: strike must be positive, got %g", o.Strike)
	}
	if o.Level <= 0 {
		return fmt.Errorf("Barrier: barrier level must be positive, got %g", o.Level)
	}
	if o.Rebate < 0 {
		return fmt.Errorf("Barrier: rebate must be non-negative, got %g", o.Rebate)
	}
	if o.ObservationInterval < 0 {
		return fmt.Errorf("Barrier: observation interval must be non-negative, got %g", o.ObservationInterval)
	}
	if err := validDates(o.EffectiveDate, o.ExpirationDate); err != nil {
		return fmt.Errorf("Barrier: %w", err)
	}
	return nil
}
