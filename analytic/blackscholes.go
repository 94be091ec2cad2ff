// Package analytic provides the closed-form valuations the finite-difference
// engine uses for boundary conditions, knock-in substitution, and reference
// checks.
package analytic

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/derivlib/instruments/options"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// BlackScholes returns the Black-Scholes-Merton value of a European vanilla
// option with continuous dividend yield q.
//
// Degenerate inputs fall back to their deterministic limits: t <= 0 returns the
// intrinsic value, vol <= 0 or s == 0 the discounted forward payoff.
func BlackScholes(right options.Right, s, k, t, vol, r, q float64) float64 {
	if t <= 0 {
		return Intrinsic(right, s, k)
	}
	df := math.Exp(-r * t)
	fwd := s * math.Exp(-q*t)
	if vol <= 0 || s <= 0 {
		return Intrinsic(right, fwd, k*df)
	}

	sqt := vol * math.Sqrt(t)
	d1 := (math.Log(s/k) + (r-q+0.5*vol*vol)*t) / sqt
	d2 := d1 - sqt
	if right == options.Call {
		return fwd*stdNormal.CDF(d1) - k*df*stdNormal.CDF(d2)
	}
	return k*df*stdNormal.CDF(-d2) - fwd*stdNormal.CDF(-d1)
}

// Vega returns the Black-Scholes-Merton sensitivity to volatility, identical
// for calls and puts.
func Vega(s, k, t, vol, r, q float64) float64 {
	if t <= 0 || vol <= 0 || s <= 0 {
		return 0
	}
	sqt := vol * math.Sqrt(t)
	d1 := (math.Log(s/k) + (r-q+0.5*vol*vol)*t) / sqt
	return s * math.Exp(-q*t) * stdNormal.Prob(d1) * math.Sqrt(t)
}

// CashOrNothing returns the value of a European digital paying payout when the
// option expires in the money.
func CashOrNothing(right options.Right, s, k, t, vol, r, q, payout float64) float64 {
	if t <= 0 {
		if (right == options.Call && s > k) || (right == options.Put && s < k) {
			return payout
		}
		return 0
	}
	df := math.Exp(-r * t)
	if vol <= 0 || s <= 0 {
		fwd := s * math.Exp((r-q)*t)
		if (right == options.Call && fwd > k) || (right == options.Put && fwd < k) {
			return payout * df
		}
		return 0
	}

	sqt := vol * math.Sqrt(t)
	d2 := (math.Log(s/k)+(r-q+0.5*vol*vol)*t)/sqt - sqt
	if right == options.Call {
		return payout * df * stdNormal.CDF(d2)
	}
	return payout * df * stdNormal.CDF(-d2)
}

// Intrinsic returns the exercise value of a vanilla option.
func Intrinsic(right options.Right, s, k float64) float64 {
	if right == options.Call {
		return math.Max(s-k, 0)
	}
	return math.Max(k-s, 0)
}
