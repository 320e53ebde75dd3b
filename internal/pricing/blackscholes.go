// Package pricing turns a spot price plus simulation parameters into a
// priced OptionChain with Greeks, per the Black-Scholes capability set
// {price_call, price_put, delta, gamma, implied_vol}.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var standardNormal = distuv.Normal{Mu: 0, Sigma: 1}

// d1d2 computes the two Black-Scholes intermediate terms.
func d1d2(spot, strike, t, r, q, vol float64) (d1, d2 float64) {
	d1 = (math.Log(spot/strike) + (r-q+0.5*vol*vol)*t) / (vol * math.Sqrt(t))
	d2 = d1 - vol*math.Sqrt(t)
	return d1, d2
}

// callPrice returns the Black-Scholes price of a European call.
func callPrice(spot, strike, t, r, q, vol float64) float64 {
	d1, d2 := d1d2(spot, strike, t, r, q, vol)
	return spot*math.Exp(-q*t)*standardNormal.CDF(d1) - strike*math.Exp(-r*t)*standardNormal.CDF(d2)
}

// putPrice returns the Black-Scholes price of a European put.
func putPrice(spot, strike, t, r, q, vol float64) float64 {
	d1, d2 := d1d2(spot, strike, t, r, q, vol)
	return strike*math.Exp(-r*t)*standardNormal.CDF(-d2) - spot*math.Exp(-q*t)*standardNormal.CDF(-d1)
}

// callDelta returns d(call price)/d(spot), in [0, 1].
func callDelta(spot, strike, t, r, q, vol float64) float64 {
	d1, _ := d1d2(spot, strike, t, r, q, vol)
	return math.Exp(-q*t) * standardNormal.CDF(d1)
}

// putDelta returns d(put price)/d(spot), in [-1, 0].
func putDelta(spot, strike, t, r, q, vol float64) float64 {
	return callDelta(spot, strike, t, r, q, vol) - math.Exp(-q*t)
}

// gamma returns d²(price)/d(spot)², shared between call and put under BS.
func gamma(spot, strike, t, r, q, vol float64) float64 {
	d1, _ := d1d2(spot, strike, t, r, q, vol)
	return math.Exp(-q*t) * standardNormal.Prob(d1) / (spot * vol * math.Sqrt(t))
}
