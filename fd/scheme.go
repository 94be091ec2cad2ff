// Package fd implements a theta-scheme finite-difference engine for the
// Black-Scholes-Merton pricing PDE on a uniform price/time grid, with
// per-instrument condition policies supplying terminal, boundary, and step
// conditions.
package fd

import "fmt"

// Scheme selects the time discretization of the backward solver.
type Scheme int

const (
	// ExplicitEuler is conditionally stable and subject to the stability
	// guard in the operator builder.
	ExplicitEuler Scheme = iota
	// ImplicitEuler is unconditionally stable, first order in time.
	ImplicitEuler
	// CrankNicolson blends both half-and-half, second order in time.
	CrankNicolson
)

func (s Scheme) String() string {
	switch s {
	case ExplicitEuler:
		return "ExplicitEuler"
	case ImplicitEuler:
		return "ImplicitEuler"
	case CrankNicolson:
		return "CrankNicolson"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// theta is the implicit weight of the scheme.
func (s Scheme) theta() float64 {
	switch s {
	case ExplicitEuler:
		return 0
	case ImplicitEuler:
		return 1
	default:
		return 0.5
	}
}

func (s Scheme) valid() bool {
	return s == ExplicitEuler || s == ImplicitEuler || s == CrankNicolson
}

// ParseScheme maps a scheme name to its enum value.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "ExplicitEuler", "explicit":
		return ExplicitEuler, nil
	case "ImplicitEuler", "implicit":
		return ImplicitEuler, nil
	case "CrankNicolson", "crank-nicolson", "":
		return CrankNicolson, nil
	default:
		return 0, fmt.Errorf("ParseScheme: unknown scheme %q", name)
	}
}
