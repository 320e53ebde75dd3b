package historical

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/optionchain/simulator/internal/models"
)

type countingSource struct {
	failFirst int32
	calls     int32
}

func (c *countingSource) GetHistoricalPrices(context.Context, string, models.TimeFrame, time.Time, time.Time) ([]float64, error) {
	n := atomic.AddInt32(&c.calls, 1)
	if n <= c.failFirst {
		return nil, errors.New("timeout talking to upstream")
	}
	return []float64{9, 9, 9}, nil
}

func (c *countingSource) ListAvailableSymbols(context.Context) ([]string, error) {
	return []string{"AAPL"}, nil
}

func (c *countingSource) GetDateRangeForSymbol(context.Context, string) (time.Time, time.Time, error) {
	return time.Time{}, time.Now(), nil
}

func TestRetryingSource_RetriesTransientFailures(t *testing.T) {
	src := &countingSource{failFirst: 2}
	r := NewRetryingSourceWithConfig(src, nil, RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})

	prices, err := r.GetHistoricalPrices(context.Background(), "AAPL", models.TimeFrameDay, time.Now(), time.Now())
	if err != nil {
		t.Fatalf("GetHistoricalPrices: %v", err)
	}
	if len(prices) != 3 {
		t.Fatalf("unexpected prices: %v", prices)
	}
	if src.calls != 3 {
		t.Fatalf("expected 3 calls (2 failures + 1 success), got %d", src.calls)
	}
}

func TestRetryingSource_GivesUpAfterMaxRetries(t *testing.T) {
	src := &countingSource{failFirst: 100}
	r := NewRetryingSourceWithConfig(src, nil, RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})

	_, err := r.GetHistoricalPrices(context.Background(), "AAPL", models.TimeFrameDay, time.Now(), time.Now())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if src.calls != 3 {
		t.Fatalf("expected 3 calls (1 initial + 2 retries), got %d", src.calls)
	}
}

func TestRetryingSource_DoesNotRetryNonTransientErrors(t *testing.T) {
	mock := NewMockSource()
	r := NewRetryingSource(mock, nil)

	_, err := r.GetHistoricalPrices(context.Background(), "NOPE", models.TimeFrameDay, time.Now().AddDate(0, 0, -10), time.Now())
	if !models.IsKind(err, models.KindSymbolUnknown) {
		t.Fatalf("expected KindSymbolUnknown without retry, got %v", err)
	}
}

func TestRetryingSource_RespectsContextCancellation(t *testing.T) {
	src := &countingSource{failFirst: 100}
	r := NewRetryingSourceWithConfig(src, nil, RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     50 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.GetHistoricalPrices(ctx, "AAPL", models.TimeFrameDay, time.Now(), time.Now())
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
