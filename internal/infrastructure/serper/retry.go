package serper

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// ClassifyFunc reports whether a failure is worth retrying.
type ClassifyFunc func(error) bool

// BackoffFunc computes the delay before the given retry attempt.
type BackoffFunc func(attempt int) time.Duration

// RetryConfig defines retry behavior for upstream calls.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// Classify decides retryability per failure. Nil retries everything.
	Classify ClassifyFunc

	// Backoff overrides the default exponential-with-jitter schedule.
	Backoff BackoffFunc

	// OnRetry is invoked before each retry attempt.
	OnRetry func(attempt int)
}

// DefaultRetryConfig returns the upstream retry policy: the original
// attempt plus exactly one retry.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  250 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 1.5,
	}
}

// ExhaustedError marks a failure that persisted through every allowed
// attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// WithRetry executes a function with bounded retry. Non-retryable failures
// pass through unchanged; exhausting the attempt budget yields an
// ExhaustedError wrapping the last failure. Retries are sequential within
// one invocation and abandoned on context cancellation.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, operation string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("operation", operation).
					Int("attempt", attempt).
					Msg("operation succeeded after retry")
			}
			return result, nil
		}

		lastErr = err

		if cfg.Classify != nil && !cfg.Classify(err) {
			log.Debug().
				Err(err).
				Str("operation", operation).
				Int("attempt", attempt).
				Msg("non-retryable error, aborting")
			return zero, err
		}

		// Don't sleep after last attempt
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.backoffFor(attempt)

		log.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Dur("retry_delay", delay).
			Msg("retrying operation after error")

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt + 1)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, &ExhaustedError{Attempts: cfg.MaxAttempts, Err: lastErr}
}

func (cfg RetryConfig) backoffFor(attempt int) time.Duration {
	if cfg.Backoff != nil {
		return cfg.Backoff(attempt)
	}
	return calculateBackoff(attempt, cfg.InitialDelay, cfg.MaxDelay, cfg.BackoffFactor)
}

// calculateBackoff computes exponential backoff delay with jitter so
// concurrent callers do not retry in lockstep.
func calculateBackoff(attempt int, initial, max time.Duration, factor float64) time.Duration {
	backoff := float64(initial) * math.Pow(factor, float64(attempt-1))

	if backoff > float64(max) {
		backoff = float64(max)
	}

	// Up to 10% jitter in either direction.
	jitter := backoff * 0.1 * (2.0*rand.Float64() - 1.0)

	return time.Duration(backoff + jitter)
}
