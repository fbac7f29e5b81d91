package hafas

import (
	"context"
	"log/slog"
	"math"
	"time"

	"zugfinder.bahnradar.org/internal/logging"
)

// RetryPolicy controls how FetchWithRetry spaces out repeated attempts.
// Attempt n (zero-based) waits BaseDelay * GrowthFactor^n before retrying.
type RetryPolicy struct {
	MaxRetries   int
	BaseDelay    time.Duration
	GrowthFactor float64

	// OnRetry, when set, is invoked once per retried attempt. The client
	// uses it to bump the retry counter metric.
	OnRetry func()

	// sleep is swapped out by tests to observe backoff waits without
	// actually sleeping.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy matches the pacing used against the public transport
// API: up to three retries with a doubling backoff starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		BaseDelay:    time.Second,
		GrowthFactor: 2.0,
	}
}

func (p RetryPolicy) backoffDelay(attempt int) time.Duration {
	growth := p.GrowthFactor
	if growth <= 0 {
		growth = 2.0
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(growth, float64(attempt)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchWithRetry invokes fn, retrying transient failures (rate limiting,
// upstream server errors) with exponential backoff. Permanent failures and
// retry exhaustion propagate the last error unchanged.
func FetchWithRetry[T any](ctx context.Context, logger *slog.Logger, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	doSleep := policy.sleep
	if doSleep == nil {
		doSleep = sleepContext
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt >= policy.MaxRetries {
			return zero, lastErr
		}

		if policy.OnRetry != nil {
			policy.OnRetry()
		}

		delay := policy.backoffDelay(attempt)
		logging.LogOperation(logger, "retrying_upstream_request",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()))

		if err := doSleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}
