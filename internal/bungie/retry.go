package bungie

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

// RetryPolicy is an explicit retry policy value applied around blocking API
// calls: bounded attempts with exponential backoff and a little jitter so
// repeated runs do not hammer the upstream in lockstep.
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// DefaultRetryPolicy returns the policy used when config does not override it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		InitialDelay:  2 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// Do executes fn until it succeeds, returns a non-retryable error, the
// attempt budget is exhausted, or ctx is cancelled. The last error is
// returned unwrapped so callers can inspect its type.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry", "op", op, "attempts", attempt)
			}
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.delay(attempt)
		slog.Warn("transient failure, backing off",
			"op", op,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// delay computes the backoff for a completed attempt number (1-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= p.BackoffFactor
	}
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && d > max {
		d = max
	}
	if p.JitterFactor > 0 {
		d += d * p.JitterFactor * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}
