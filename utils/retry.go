package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
	Logger         zerolog.Logger
}

// Do executes fn with bounded exponential back-off. The backoff sleep is a
// cancellation point: a cancelled ctx aborts before the next attempt.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	var lastErr error
	delay := r.InitialBackoff

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s aborted before attempt %d: %w", operationName, attempt, err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < r.MaxAttempts {
			r.Logger.Warn().
				Str("operation", operationName).
				Int("attempt", attempt).
				Int("max", r.MaxAttempts).
				Dur("backoff", delay).
				Err(lastErr).
				Msg("operation failed, retrying")

			if err := sleepCtx(ctx, delay); err != nil {
				return fmt.Errorf("%s aborted during backoff: %w", operationName, err)
			}
			delay = nextBackoff(delay, r.Multiplier, r.MaxBackoff)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}

func nextBackoff(current time.Duration, multiplier float64, max time.Duration) time.Duration {
	if multiplier <= 1 {
		multiplier = 2
	}
	next := time.Duration(float64(current) * multiplier)
	if max > 0 && next > max {
		return max
	}
	return next
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SleepCtx is the exported form used by callers that need a bounded,
// cancellable pause (inter-page delays, rate-limit waits).
func SleepCtx(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}
