// Package historical defines the external HistoricalPriceSource collaborator
// and ships decorators (circuit breaking, retry) that compose around any
// implementation the same way, plus a deterministic mock for demos/tests.
package historical

import (
	"context"
	"time"

	"github.com/optionchain/simulator/internal/models"
)

// Source is the HistoricalPriceSource contract from spec §6: async OHLCV
// access the path generator's Historical method depends on. All operations
// may fail with a *models.SessionError of Kind KindDataSourceUnavailable or
// KindSymbolUnknown.
type Source interface {
	// GetHistoricalPrices returns close-of-bar prices for symbol between
	// start and end at the given granularity, monotonic in timestamp.
	GetHistoricalPrices(ctx context.Context, symbol string, tf models.TimeFrame, start, end time.Time) ([]float64, error)
	// ListAvailableSymbols enumerates every symbol the source can serve.
	ListAvailableSymbols(ctx context.Context) ([]string, error)
	// GetDateRangeForSymbol returns the earliest and latest bar available.
	GetDateRangeForSymbol(ctx context.Context, symbol string) (earliest, latest time.Time, err error)
}
