package pricing

import (
	"math"
	"time"

	"github.com/optionchain/simulator/internal/models"
	"github.com/optionchain/simulator/internal/util"
)

// parityTolerance gates the put-call-parity sanity check in step 3.
const parityTolerance = 1e-6

// ChainBuilder turns (spot, parameters, time-to-expiry, timestamp) into a
// priced OptionChain, per spec §4.6's six-step pipeline. It owns no mutable
// state.
type ChainBuilder struct{}

// NewChainBuilder constructs a stateless ChainBuilder.
func NewChainBuilder() *ChainBuilder {
	return &ChainBuilder{}
}

// Build executes the strike-ladder -> smile -> pricing -> quoting -> Greeks
// -> ordering pipeline. timeToExpiryYears must be strictly positive.
func (b *ChainBuilder) Build(spot float64, params models.SimulationParameters, timeToExpiryYears float64, timestamp time.Time) (*models.OptionChain, []error) {
	var warnings []error

	strikes := strikeLadder(spot, params.ChainSize, params.StrikeInterval)
	expiration := timestamp.Add(time.Duration(params.DaysToExpiration * 24 * float64(time.Hour)))
	tick := models.DefaultTick

	contracts := make([]models.OptionContract, 0, len(strikes))
	for _, strike := range strikes {
		vol := smileVolatility(params.Volatility, strike, spot, params.SmileCurve)

		callMid := callPrice(spot, strike, timeToExpiryYears, params.RiskFreeRate, params.DividendYield, vol)
		putMid := putPrice(spot, strike, timeToExpiryYears, params.RiskFreeRate, params.DividendYield, vol)

		if !parityHolds(callMid, putMid, spot, strike, timeToExpiryYears, params.RiskFreeRate, params.DividendYield) {
			warnings = append(warnings, &models.SessionError{
				Kind:    models.KindIVDidNotConverge,
				Message: "put-call parity deviation exceeded tolerance at this strike",
			})
		}

		if _, converged := impliedVol(callMid, spot, strike, timeToExpiryYears, params.RiskFreeRate, params.DividendYield, true, vol); !converged {
			warnings = append(warnings, &models.SessionError{
				Kind:    models.KindIVDidNotConverge,
				Message: "implied-volatility solver did not converge for this strike; pricing used the input sigma",
			})
		}

		call := quoteFor(callMid, params.Spread, tick, callDelta(spot, strike, timeToExpiryYears, params.RiskFreeRate, params.DividendYield, vol))
		put := quoteFor(putMid, params.Spread, tick, putDelta(spot, strike, timeToExpiryYears, params.RiskFreeRate, params.DividendYield, vol))

		contracts = append(contracts, models.OptionContract{
			Strike:            strike,
			Expiration:        expiration,
			Call:              call,
			Put:               put,
			ImpliedVolatility: vol,
			Gamma:             gamma(spot, strike, timeToExpiryYears, params.RiskFreeRate, params.DividendYield, vol),
		})
	}

	return &models.OptionChain{
		Underlying: params.Symbol,
		Timestamp:  timestamp,
		Price:      spot,
		Contracts:  contracts,
	}, warnings
}

// strikeLadder builds N strikes centered on spot, spaced by interval,
// rounded to 2 decimals and filtered to strictly positive, per step 1.
func strikeLadder(spot float64, n int, interval float64) []float64 {
	if n <= 0 {
		n = models.DefaultChainSize
	}
	if interval <= 0 {
		interval = 1
		if rounded := math.Round(spot * 0.01); rounded > 1 {
			interval = rounded
		}
	}

	strikes := make([]float64, 0, n)
	mid := float64(n-1) / 2
	for i := 0; i < n; i++ {
		strike := spot + (float64(i)-mid)*interval
		strike = math.Round(strike*100) / 100
		if strike > 0 {
			strikes = append(strikes, strike)
		}
	}
	return strikes
}

// smileVolatility applies the IV smile curvature around moneyness, clamped
// to a floor so pricing never sees a non-positive sigma.
func smileVolatility(baseVol, strike, spot, smileCurve float64) float64 {
	moneyness := (strike - spot) / spot
	vol := baseVol * (1 + smileCurve*moneyness*moneyness)
	if vol < 1e-4 {
		return 1e-4
	}
	return vol
}

// parityHolds reports whether call - put ≈ S·e^-qT - K·e^-rT within
// parityTolerance·spot, per spec §4.6 step 3 / §8's quantified invariant.
func parityHolds(callMid, putMid, spot, strike, t, r, q float64) bool {
	lhs := callMid - putMid
	rhs := spot*math.Exp(-q*t) - strike*math.Exp(-r*t)
	return math.Abs(lhs-rhs) < parityTolerance*spot
}

// quoteFor derives bid/ask/mid from a theoretical mid, nulling all three
// when mid falls below tick (the option is effectively worthless in
// quotes) but always retaining delta, per step 4.
func quoteFor(mid, spread, tick, delta float64) models.OptionQuote {
	if mid < tick {
		return models.OptionQuote{Delta: delta}
	}

	bid := util.RoundToTick(mid*(1-spread/2), 0.01)
	ask := util.RoundToTick(mid*(1+spread/2), 0.01)
	roundedMid := util.RoundToTick(mid, 0.01)
	return models.OptionQuote{Bid: &bid, Ask: &ask, Mid: &roundedMid, Delta: delta}
}
