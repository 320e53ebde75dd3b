package historical

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/optionchain/simulator/internal/models"
)

// RetryConfig controls RetryingSource's bounded exponential backoff.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Timeout bounds the retry sequence: it is checked before each attempt
	// and during each backoff wait, and once it has elapsed the call fails
	// with KindStoreTimeout regardless of how many retries remain. An
	// attempt already in progress runs with the caller's context and is not
	// cut short by it.
	Timeout time.Duration
}

// DefaultRetryConfig retries transient failures up to 3 times, starting at
// 200ms and backing off by 1.5x per attempt up to 5s, with a 30s overall
// deadline.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:     3,
	InitialBackoff: 200 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	Timeout:        30 * time.Second,
}

// RetryingSource wraps a Source with bounded exponential backoff around
// transient failures (network blips, rate limiting). Non-transient errors
// (unknown symbol, bad parameters) are returned immediately without retry.
type RetryingSource struct {
	source Source
	logger *logrus.Logger
	config RetryConfig
}

// NewRetryingSource wraps source with DefaultRetryConfig. A nil logger
// disables logging.
func NewRetryingSource(source Source, logger *logrus.Logger) *RetryingSource {
	return NewRetryingSourceWithConfig(source, logger, DefaultRetryConfig)
}

// NewRetryingSourceWithConfig wraps source with an explicit RetryConfig.
func NewRetryingSourceWithConfig(source Source, logger *logrus.Logger, config RetryConfig) *RetryingSource {
	if config.MaxRetries < 0 {
		config.MaxRetries = DefaultRetryConfig.MaxRetries
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = DefaultRetryConfig.InitialBackoff
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRetryConfig.Timeout
	}
	return &RetryingSource{source: source, logger: logger, config: config}
}

// GetHistoricalPrices retries transient failures with backoff.
func (r *RetryingSource) GetHistoricalPrices(ctx context.Context, symbol string, tf models.TimeFrame, start, end time.Time) ([]float64, error) {
	var result []float64
	err := r.withRetry(ctx, func() error {
		var err error
		result, err = r.source.GetHistoricalPrices(ctx, symbol, tf, start, end)
		return err
	})
	return result, err
}

// ListAvailableSymbols retries transient failures with backoff.
func (r *RetryingSource) ListAvailableSymbols(ctx context.Context) ([]string, error) {
	var result []string
	err := r.withRetry(ctx, func() error {
		var err error
		result, err = r.source.ListAvailableSymbols(ctx)
		return err
	})
	return result, err
}

// GetDateRangeForSymbol retries transient failures with backoff.
func (r *RetryingSource) GetDateRangeForSymbol(ctx context.Context, symbol string) (time.Time, time.Time, error) {
	var earliest, latest time.Time
	err := r.withRetry(ctx, func() error {
		var err error
		earliest, latest, err = r.source.GetDateRangeForSymbol(ctx, symbol)
		return err
	})
	return earliest, latest, err
}

func (r *RetryingSource) withRetry(ctx context.Context, op func() error) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return deadlineErr(err, lastErr)
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) || attempt == r.config.MaxRetries {
			return lastErr
		}

		if r.logger != nil {
			r.logger.WithError(lastErr).WithField("attempt", attempt+1).Warn("historical source call failed, retrying")
		}

		select {
		case <-time.After(jitter(backoff)):
			backoff = nextBackoff(backoff, r.config.MaxBackoff)
		case <-ctx.Done():
			return deadlineErr(ctx.Err(), lastErr)
		}
	}
	return lastErr
}

// deadlineErr translates a deadline-exceeded context error into
// KindStoreTimeout; cause lets the original transient failure show up in
// logs. Cancellation (caller gave up) passes through unchanged.
func deadlineErr(ctxErr error, cause error) error {
	if ctxErr == context.DeadlineExceeded {
		return &models.SessionError{
			Kind:    models.KindStoreTimeout,
			Message: "historical source call exceeded retry deadline",
			Cause:   cause,
		}
	}
	return ctxErr
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * 1.5)
	if next > max {
		next = max
	}
	return next
}

// jitter adds up to 25% random delay on top of d to avoid thundering-herd
// retries across sessions.
func jitter(d time.Duration) time.Duration {
	maxJitter := int64(d / 4)
	if maxJitter <= 0 {
		return d
	}
	n, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
	if err != nil {
		return d
	}
	return d + time.Duration(n.Int64())
}

func isTransient(err error) bool {
	if models.IsKind(err, models.KindDataSourceUnavailable) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"timeout", "connection refused", "connection reset", "temporarily unavailable",
		"rate limit", "429", "502", "503", "504", "eof", "broken pipe", "no such host",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var _ Source = (*RetryingSource)(nil)
