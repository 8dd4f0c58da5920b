package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool    // Exponential backoff
	Multiplier  float64 // growth factor when Backoff is set (0 means 2, 1 is constant)
	MaxDelay    time.Duration

	// OnRetry is called before each sleep with the attempt that just failed.
	OnRetry func(attempt int, delay time.Duration, err error)
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. WithRetry returns it unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// DelayFor returns the sleep that follows the given failed attempt (1-based).
func (c RetryConfig) DelayFor(attempt int) time.Duration {
	delay := c.Delay
	if c.Backoff && attempt > 1 {
		mult := c.Multiplier
		if mult <= 0 {
			mult = 2
		}
		d := float64(c.Delay)
		for i := 1; i < attempt; i++ {
			d *= mult
			if c.MaxDelay > 0 && d >= float64(c.MaxDelay) {
				return c.MaxDelay
			}
		}
		delay = time.Duration(d)
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err

			var perm *permanentError
			if errors.As(err, &perm) {
				return perm.err
			}

			if attempt == config.MaxAttempts {
				return fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, err)
			}

			delay := config.DelayFor(attempt)
			if config.OnRetry != nil {
				config.OnRetry(attempt, delay, err)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
		return nil
	}

	return lastErr
}
