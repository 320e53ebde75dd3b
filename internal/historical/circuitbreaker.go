package historical

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/optionchain/simulator/internal/models"
)

// CircuitBreakerSettings configures the gobreaker.CircuitBreaker guarding a
// Source. Mirrors the shape the teacher's own broker package expected of a
// CircuitBreakerBroker but never shipped.
type CircuitBreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultCircuitBreakerSettings trips once at least half of 5 or more calls
// fail within a 60s window, and probes again after 30s.
var DefaultCircuitBreakerSettings = CircuitBreakerSettings{
	MaxRequests:  1,
	Interval:     60 * time.Second,
	Timeout:      30 * time.Second,
	MinRequests:  5,
	FailureRatio: 0.5,
}

// CircuitBreakerSource wraps a Source with a gobreaker.CircuitBreaker so a
// failing upstream (broker outage, rate limiting) fails fast instead of
// piling up latency on every session that needs a Historical path built.
type CircuitBreakerSource struct {
	source  Source
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakerSource wraps source with DefaultCircuitBreakerSettings.
func NewCircuitBreakerSource(source Source) *CircuitBreakerSource {
	return NewCircuitBreakerSourceWithSettings(source, DefaultCircuitBreakerSettings)
}

// NewCircuitBreakerSourceWithSettings wraps source with explicit settings.
func NewCircuitBreakerSourceWithSettings(source Source, settings CircuitBreakerSettings) *CircuitBreakerSource {
	st := gobreaker.Settings{
		Name:        "historical-source",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
	}
	return &CircuitBreakerSource{source: source, breaker: gobreaker.NewCircuitBreaker(st)}
}

// GetHistoricalPrices executes through the breaker, translating an open
// breaker into a KindDataSourceUnavailable SessionError.
func (c *CircuitBreakerSource) GetHistoricalPrices(ctx context.Context, symbol string, tf models.TimeFrame, start, end time.Time) ([]float64, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.source.GetHistoricalPrices(ctx, symbol, tf, start, end)
	})
	if err != nil {
		return nil, wrapBreakerError(err)
	}
	return result.([]float64), nil
}

// ListAvailableSymbols executes through the breaker.
func (c *CircuitBreakerSource) ListAvailableSymbols(ctx context.Context) ([]string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.source.ListAvailableSymbols(ctx)
	})
	if err != nil {
		return nil, wrapBreakerError(err)
	}
	return result.([]string), nil
}

// dateRange bundles GetDateRangeForSymbol's two-value result for gobreaker's
// single-return Execute signature.
type dateRange struct{ earliest, latest time.Time }

// GetDateRangeForSymbol executes through the breaker.
func (c *CircuitBreakerSource) GetDateRangeForSymbol(ctx context.Context, symbol string) (time.Time, time.Time, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		earliest, latest, err := c.source.GetDateRangeForSymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return dateRange{earliest, latest}, nil
	})
	if err != nil {
		return time.Time{}, time.Time{}, wrapBreakerError(err)
	}
	dr := result.(dateRange)
	return dr.earliest, dr.latest, nil
}

// wrapBreakerError leaves symbol/parameter errors from the wrapped source
// untouched, and classifies everything else — including gobreaker.ErrOpenState
// and gobreaker.ErrTooManyRequests — as KindDataSourceUnavailable.
func wrapBreakerError(err error) error {
	if models.IsKind(err, models.KindSymbolUnknown) {
		return err
	}
	return &models.SessionError{Kind: models.KindDataSourceUnavailable, Message: "historical source unavailable", Cause: err}
}

var _ Source = (*CircuitBreakerSource)(nil)
