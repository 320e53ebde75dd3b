package pricing

import (
	"math"
	"testing"
)

func TestCallPrice_MatchesKnownReference(t *testing.T) {
	// S=100, K=100, T=1, r=0.05, q=0, vol=0.2 -> classic textbook example ~10.45
	price := callPrice(100, 100, 1, 0.05, 0, 0.2)
	if math.Abs(price-10.4506) > 1e-3 {
		t.Fatalf("expected ~10.45, got %v", price)
	}
}

func TestPutCallParity_HoldsForBlackScholesPrices(t *testing.T) {
	spot, strike, t_, r, q, vol := 100.0, 105.0, 0.5, 0.03, 0.01, 0.25
	call := callPrice(spot, strike, t_, r, q, vol)
	put := putPrice(spot, strike, t_, r, q, vol)

	lhs := call - put
	rhs := spot*math.Exp(-q*t_) - strike*math.Exp(-r*t_)
	if math.Abs(lhs-rhs) > 1e-9 {
		t.Fatalf("parity violated: lhs=%v rhs=%v", lhs, rhs)
	}
}

func TestCallDelta_InBoundsAndMonotonicInStrike(t *testing.T) {
	spot, t_, r, q, vol := 100.0, 1.0, 0.05, 0.0, 0.2
	prevDelta := math.Inf(1)
	for _, strike := range []float64{80, 90, 100, 110, 120} {
		d := callDelta(spot, strike, t_, r, q, vol)
		if d < 0 || d > 1 {
			t.Fatalf("call delta out of bounds at strike %v: %v", strike, d)
		}
		if d > prevDelta {
			t.Fatalf("expected call delta to decrease as strike increases: strike=%v delta=%v prev=%v", strike, d, prevDelta)
		}
		prevDelta = d
	}
}

func TestPutDelta_InBounds(t *testing.T) {
	d := putDelta(100, 100, 1, 0.05, 0, 0.2)
	if d < -1 || d > 0 {
		t.Fatalf("put delta out of bounds: %v", d)
	}
}

func TestGamma_NonNegative(t *testing.T) {
	for _, strike := range []float64{80, 100, 120} {
		g := gamma(100, strike, 1, 0.05, 0, 0.2)
		if g < 0 {
			t.Fatalf("gamma negative at strike %v: %v", strike, g)
		}
	}
}
