package backend

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/trezcool/tutordesk/core"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// withRetry runs fn until it succeeds, fails with a permanent error or runs out of attempts.
func withRetry(ctx context.Context, op string, cfg RetryConfig, logger core.Logger, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 0 {
				logger.Debug("backend call succeeded after retries", map[string]interface{}{"op": op, "attempt": attempt + 1})
			}
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < cfg.MaxRetries {
			delay := backoff(attempt, cfg)
			logger.Warn("backend call failed, retrying", lastErr, map[string]interface{}{"op": op, "attempt": attempt + 1, "delay": delay.String()})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// backoff is exponential with 80-120% jitter, capped at MaxDelay.
func backoff(attempt int, cfg RetryConfig) time.Duration {
	mult := cfg.Multiplier
	if mult <= 0 {
		mult = 2
	}
	delay := float64(cfg.BaseDelay) * math.Pow(mult, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay * (0.8 + rand.Float64()*0.4))
}
