package fd

import (
	"errors"
	"fmt"
	"math"
)

// ErrObservationMapping reports an observation date that cannot be snapped
// uniquely onto the time grid. Mapping failures surface before any time
// stepping begins; the caller must widen the time step count.
var ErrObservationMapping = errors.New("observation date cannot be mapped uniquely onto the time grid")

// MapObservations snaps sorted observation times (years from the valuation
// date) onto grid step indices. Each time is rounded to the nearest step and
// accepted only when it lies within half a time step of that node; a time
// outside the grid, beyond tolerance, or colliding with an already-assigned
// step is a hard error rather than a best-effort snap.
//
// The returned map is keyed by step index with the observation's position in
// times as value, guaranteeing a 1:1 collision-free mapping.
func MapObservations(times []float64, dt float64, timeSteps int) (map[int]int, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("MapObservations: time step must be positive, got %g", dt)
	}
	byStep := make(map[int]int, len(times))
	for i, t := range times {
		step := int(math.Round(t / dt))
		if step < 0 || step > timeSteps {
			return nil, fmt.Errorf("fd: %w: observation %d at t=%.6f lies outside the grid [0, %.6f]",
				ErrObservationMapping, i, t, float64(timeSteps)*dt)
		}
		if gap := math.Abs(float64(step)*dt - t); gap >= dt/2 {
			return nil, fmt.Errorf("fd: %w: observation %d at t=%.6f is %.2e years from the nearest node (tolerance %.2e); widen the time step count",
				ErrObservationMapping, i, t, gap, dt/2)
		}
		if prev, taken := byStep[step]; taken {
			return nil, fmt.Errorf("fd: %w: observations %d and %d both snap to step %d; widen the time step count",
				ErrObservationMapping, prev, i, step)
		}
		byStep[step] = i
	}
	return byStep, nil
}
