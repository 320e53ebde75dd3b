// Package pathgen produces the deterministic price path a session's chain
// is built against: one of GeometricBrownian, Historical (bootstrap), or
// BlackScholes (drift-only reference), selected by the session's method.
package pathgen

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/optionchain/simulator/internal/historical"
	"github.com/optionchain/simulator/internal/models"
)

// Generator builds PricePaths for a session, fetching historical data
// through source when the session's method requires it.
type Generator struct {
	source historical.Source
}

// New constructs a Generator backed by source. source may be nil if the
// deployment never configures any session with method Historical — a
// Historical build against a nil source fails with KindDataSourceUnavailable
// rather than panicking.
func New(source historical.Source) *Generator {
	return &Generator{source: source}
}

// Result bundles a built PricePath with the volatility ChainBuilder should
// treat as the session's base_vol. GeometricBrownian and BlackScholes pass
// parameters.Volatility through unchanged; Historical replaces it with the
// realized volatility derived from the fetched series (see RealizedVol).
type Result struct {
	Path        []float64
	RealizedVol float64
}

// Build produces a PricePath of length session.TotalSteps+1 for session,
// dispatching on its configured method. Per spec §4.5, the result is
// byte-identical across processes for identical (session.ID, Parameters).
func (g *Generator) Build(ctx context.Context, session *models.Session) (Result, error) {
	params := session.Parameters
	n := session.TotalSteps + 1

	switch params.Method.Kind {
	case models.MethodGeometricBrownian:
		path, err := g.buildGBM(session.ID, params, n)
		return Result{Path: path, RealizedVol: params.Volatility}, err
	case models.MethodHistorical:
		return g.buildHistorical(ctx, session.ID, params, n)
	case models.MethodBlackScholes:
		path, err := g.buildBlackScholes(params, n)
		return Result{Path: path, RealizedVol: params.Volatility}, err
	default:
		return Result{}, models.NewInvalidParameter("method", "unknown method kind")
	}
}

func (g *Generator) buildGBM(sessionID string, params models.SimulationParameters, n int) ([]float64, error) {
	cfg := params.Method.GBM
	rng := rand.New(rand.NewSource(seed(sessionID, params))) // #nosec G404 -- deterministic simulation PRNG, not security sensitive

	path := make([]float64, n)
	path[0] = params.InitialPrice
	drift := cfg.Drift - 0.5*cfg.Volatility*cfg.Volatility
	vol := cfg.Volatility * math.Sqrt(cfg.DT)

	for k := 1; k < n; k++ {
		z := rng.NormFloat64()
		next := path[k-1] * math.Exp(drift*cfg.DT+vol*z)
		if math.IsInf(next, 0) || next <= 0 {
			return nil, &models.SessionError{Kind: models.KindNumericUnderflow, Message: "price path underflowed to non-positive value"}
		}
		path[k] = next
	}
	return path, nil
}

func (g *Generator) buildHistorical(ctx context.Context, sessionID string, params models.SimulationParameters, n int) (Result, error) {
	if g.source == nil {
		return Result{}, &models.SessionError{Kind: models.KindDataSourceUnavailable, Message: "no historical source configured"}
	}

	cfg := params.Method.Historical
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -cfg.LookbackDays)

	series, err := g.source.GetHistoricalPrices(ctx, params.Symbol, params.TimeFrame, start, end)
	if err != nil {
		return Result{}, err
	}
	if len(series) < 2 {
		return Result{}, &models.SessionError{Kind: models.KindInsufficientHistory, Message: "historical series too short to compute returns"}
	}

	logReturns := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		logReturns[i-1] = math.Log(series[i] / series[i-1])
	}
	if len(logReturns) < n-1 {
		return Result{}, &models.SessionError{Kind: models.KindInsufficientHistory, Message: "fewer historical returns than steps requested"}
	}

	realizedVol := realizedVolatility(logReturns, params.TimeFrame)

	rng := rand.New(rand.NewSource(seed(sessionID, params))) // #nosec G404 -- deterministic simulation PRNG, not security sensitive
	path := make([]float64, n)
	path[0] = params.InitialPrice
	for k := 1; k < n; k++ {
		r := logReturns[rng.Intn(len(logReturns))]
		next := path[k-1] * math.Exp(r)
		if math.IsInf(next, 0) || next <= 0 {
			return Result{}, &models.SessionError{Kind: models.KindNumericUnderflow, Message: "price path underflowed to non-positive value"}
		}
		path[k] = next
	}
	return Result{Path: path, RealizedVol: realizedVol}, nil
}

// realizedVolatility annualizes the sample standard deviation of log
// returns using the step frequency implied by tf, per spec's
// stddev(log-returns) * sqrt(periods-per-year).
func realizedVolatility(logReturns []float64, tf models.TimeFrame) float64 {
	var mean float64
	for _, r := range logReturns {
		mean += r
	}
	mean /= float64(len(logReturns))

	var sumSq float64
	for _, r := range logReturns {
		d := r - mean
		sumSq += d * d
	}
	variance := sumSq / float64(len(logReturns)-1)
	periodsPerYear := 1.0 / tf.StepYears()
	return math.Sqrt(variance * periodsPerYear)
}

func (g *Generator) buildBlackScholes(params models.SimulationParameters, n int) ([]float64, error) {
	dt := params.TimeFrame.StepYears()
	drift := (params.RiskFreeRate - params.DividendYield) * dt

	path := make([]float64, n)
	path[0] = params.InitialPrice
	for k := 1; k < n; k++ {
		next := path[k-1] * math.Exp(drift)
		if math.IsInf(next, 0) || next <= 0 {
			return nil, &models.SessionError{Kind: models.KindNumericUnderflow, Message: "price path underflowed to non-positive value"}
		}
		path[k] = next
	}
	return path, nil
}
