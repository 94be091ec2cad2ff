package utils

import "time"

// YearFraction returns the ACT/365F year fraction between two dates. Contract
// lifetimes and observation offsets are all measured on this basis: calendar
// days divided by a fixed 365-day year.
func YearFraction(start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	return days / 365.0
}
