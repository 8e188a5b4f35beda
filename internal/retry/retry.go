package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how a call is retried. The delay before attempt n+1 is
// min(BaseDelay * 2^(n-1), MaxDelay).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy retries three times with 1s, 2s delays capped at 5s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    5 * time.Second,
	}
}

type options struct {
	timer  backoff.Timer
	notify func(attempt int, err error, delay time.Duration)
}

// Option customizes Do.
type Option func(*options)

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(timer backoff.Timer) Option {
	return func(o *options) { o.timer = timer }
}

// WithNotify registers a hook called before each wait.
func WithNotify(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(o *options) { o.notify = fn }
}

// Do calls fn until it succeeds or the policy is exhausted, returning the
// last error. Every error is retried. Cancelling ctx stops the wait and
// returns the context error.
func Do[T any](ctx context.Context, policy Policy, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var result T
	attempt := 0
	operation := func() error {
		attempt++
		res, err := fn(ctx)
		if err != nil {
			return err
		}
		result = res
		return nil
	}

	notify := func(err error, delay time.Duration) {
		slog.Warn("provider call failed, retrying", "attempt", attempt, "max_attempts", policy.MaxAttempts, "delay", delay, "error", err.Error())
		if o.notify != nil {
			o.notify(attempt, err, delay)
		}
	}

	if err := backoff.RetryNotifyWithTimer(operation, newBackOff(ctx, policy), notify, o.timer); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func newBackOff(ctx context.Context, policy Policy) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = policy.MaxDelay
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(policy.MaxAttempts-1)), ctx)
}
