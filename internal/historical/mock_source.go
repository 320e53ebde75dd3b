package historical

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/optionchain/simulator/internal/models"
)

// seriesSpec describes a synthetic symbol's daily-bar depth and starting
// level — enough to deterministically regenerate an OHLCV series on demand.
type seriesSpec struct {
	startPrice float64
	annualVol  float64
	bars       int // how many daily bars of history this symbol carries
}

// MockSource is a deterministic synthetic OHLCV generator: each symbol's
// series is reproducible from its name alone (seeded rng), grounded on the
// teacher's deterministic-RNG DataProvider pattern. It is the default
// HistoricalPriceSource wired in the demo/reference deployment.
type MockSource struct {
	mu      sync.RWMutex
	symbols map[string]seriesSpec
}

// NewMockSource constructs a MockSource pre-populated with a small universe
// of symbols, including "THIN" — a symbol with deliberately short history,
// useful for exercising the KindInsufficientHistory path end to end.
func NewMockSource() *MockSource {
	return &MockSource{
		symbols: map[string]seriesSpec{
			"AAPL": {startPrice: 185.0, annualVol: 0.25, bars: 756},
			"SPY":  {startPrice: 450.0, annualVol: 0.16, bars: 756},
			"TSLA": {startPrice: 220.0, annualVol: 0.55, bars: 756},
			"THIN": {startPrice: 50.0, annualVol: 0.30, bars: 5},
		},
	}
}

// RegisterSymbol adds or replaces a synthetic symbol's series spec.
func (m *MockSource) RegisterSymbol(symbol string, startPrice, annualVol float64, bars int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols[symbol] = seriesSpec{startPrice: startPrice, annualVol: annualVol, bars: bars}
}

func (m *MockSource) lookup(symbol string) (seriesSpec, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.symbols[symbol]
	return spec, ok
}

// seededSeries regenerates the full bar series deterministically: same
// symbol and spec always produce the same prices.
func seededSeries(symbol string, spec seriesSpec) []float64 {
	seed := fnvSeed(symbol)
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- deterministic synthetic data, not security sensitive

	dt := 1.0 / 252.0
	prices := make([]float64, spec.bars+1)
	prices[0] = spec.startPrice
	drift := 0.06 // a mild positive annual drift for the synthetic universe
	for i := 1; i < len(prices); i++ {
		z := rng.NormFloat64()
		shock := (drift-0.5*spec.annualVol*spec.annualVol)*dt + spec.annualVol*math.Sqrt(dt)*z
		prices[i] = prices[i-1] * math.Exp(shock)
	}
	return prices
}

// GetHistoricalPrices returns the synthetic close series for symbol,
// clipped to [start,end] by index position (bars are spaced one per
// trading day regardless of tf, since this is a demo data source).
func (m *MockSource) GetHistoricalPrices(_ context.Context, symbol string, _ models.TimeFrame, start, end time.Time) ([]float64, error) {
	spec, ok := m.lookup(symbol)
	if !ok {
		return nil, &models.SessionError{Kind: models.KindSymbolUnknown, Message: fmt.Sprintf("unknown symbol %q", symbol)}
	}

	full := seededSeries(symbol, spec)
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 || days > len(full) {
		days = len(full)
	}
	return full[len(full)-days:], nil
}

// ListAvailableSymbols enumerates the synthetic universe in sorted order.
func (m *MockSource) ListAvailableSymbols(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	symbols := make([]string, 0, len(m.symbols))
	for s := range m.symbols {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// GetDateRangeForSymbol reports the span [today-bars, today] for symbol.
func (m *MockSource) GetDateRangeForSymbol(_ context.Context, symbol string) (time.Time, time.Time, error) {
	spec, ok := m.lookup(symbol)
	if !ok {
		return time.Time{}, time.Time{}, &models.SessionError{Kind: models.KindSymbolUnknown, Message: fmt.Sprintf("unknown symbol %q", symbol)}
	}
	latest := time.Now().UTC()
	earliest := latest.Add(-time.Duration(spec.bars) * 24 * time.Hour)
	return earliest, latest, nil
}

// fnvSeed derives a stable int64 seed from a symbol name using the FNV-1a
// hash (no cryptographic properties needed — just stability).
func fnvSeed(s string) int64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return int64(h & 0x7fffffffffffffff) // #nosec G115 -- masked to stay within int64 range
}

var _ Source = (*MockSource)(nil)
