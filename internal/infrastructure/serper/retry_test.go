package serper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	serperclient "serper-mcp/internal/infrastructure/serper"
)

func fastRetryConfig(maxAttempts int) serperclient.RetryConfig {
	return serperclient.RetryConfig{
		MaxAttempts:   maxAttempts,
		InitialDelay:  1 * time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 1.5,
	}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds on first attempt", func(t *testing.T) {
		calls := 0
		result, err := serperclient.WithRetry(context.Background(), fastRetryConfig(2), "op", func() (string, error) {
			calls++
			return "ok", nil
		})

		if err != nil {
			t.Fatalf("WithRetry() error = %v", err)
		}
		if result != "ok" {
			t.Errorf("WithRetry() = %q, want ok", result)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retries once then succeeds", func(t *testing.T) {
		calls := 0
		result, err := serperclient.WithRetry(context.Background(), fastRetryConfig(2), "op", func() (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("transient")
			}
			return "ok", nil
		})

		if err != nil {
			t.Fatalf("WithRetry() error = %v", err)
		}
		if result != "ok" {
			t.Errorf("WithRetry() = %q, want ok", result)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("exhausts attempt budget", func(t *testing.T) {
		calls := 0
		boom := errors.New("still down")
		_, err := serperclient.WithRetry(context.Background(), fastRetryConfig(2), "op", func() (int, error) {
			calls++
			return 0, boom
		})

		var exhausted *serperclient.ExhaustedError
		if !errors.As(err, &exhausted) {
			t.Fatalf("WithRetry() error = %v, want ExhaustedError", err)
		}
		if exhausted.Attempts != 2 {
			t.Errorf("ExhaustedError.Attempts = %d, want 2", exhausted.Attempts)
		}
		if !errors.Is(err, boom) {
			t.Errorf("ExhaustedError does not wrap the last failure: %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("non-retryable error aborts immediately", func(t *testing.T) {
		cfg := fastRetryConfig(3)
		fatal := errors.New("credential rejected")
		cfg.Classify = func(err error) bool { return !errors.Is(err, fatal) }

		calls := 0
		_, err := serperclient.WithRetry(context.Background(), cfg, "op", func() (int, error) {
			calls++
			return 0, fatal
		})

		if !errors.Is(err, fatal) {
			t.Fatalf("WithRetry() error = %v, want the original failure unchanged", err)
		}
		var exhausted *serperclient.ExhaustedError
		if errors.As(err, &exhausted) {
			t.Errorf("non-retryable error must not be wrapped as exhausted")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("respects context cancellation between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		cfg := fastRetryConfig(3)
		cfg.InitialDelay = 100 * time.Millisecond

		calls := 0
		_, err := serperclient.WithRetry(ctx, cfg, "op", func() (int, error) {
			calls++
			cancel()
			return 0, errors.New("transient")
		})

		if !errors.Is(err, context.Canceled) {
			t.Fatalf("WithRetry() error = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("invokes OnRetry before each retry", func(t *testing.T) {
		cfg := fastRetryConfig(3)
		var notified []int
		cfg.OnRetry = func(attempt int) { notified = append(notified, attempt) }

		_, _ = serperclient.WithRetry(context.Background(), cfg, "op", func() (int, error) {
			return 0, errors.New("transient")
		})

		if len(notified) != 2 || notified[0] != 2 || notified[1] != 3 {
			t.Errorf("OnRetry notifications = %v, want [2 3]", notified)
		}
	})
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := serperclient.DefaultRetryConfig()

	if cfg.MaxAttempts != 2 {
		t.Errorf("DefaultRetryConfig().MaxAttempts = %d, want 2", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 250*time.Millisecond {
		t.Errorf("DefaultRetryConfig().InitialDelay = %v, want 250ms", cfg.InitialDelay)
	}
}
