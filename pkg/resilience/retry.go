package resilience

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Timer abstracts waiting between attempts so tests do not sleep.
type Timer interface {
	After(time.Duration) <-chan time.Time
}

// RetryPolicy configures exponential backoff for a retried call.
type RetryPolicy struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// IsRetryable decides whether a failed attempt may be retried. Nil retries every error.
	IsRetryable func(error) bool
	// OnRetry is called after each failed attempt whose error is retryable.
	OnRetry func(attempt uint, err error)
	Timer   Timer
}

// DefaultRetryPolicy returns the policy used for model calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}
}

// Backoff returns the wait before attempt n (n > 1):
// min(InitialDelay * Multiplier^(n-1), MaxDelay). Attempt 1 never waits.
func (p RetryPolicy) Backoff(attempt uint) time.Duration {
	if attempt < 2 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	raw := float64(p.InitialDelay) * math.Pow(multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && raw > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(raw)
}

// Retry runs fn until it succeeds, the error is not retryable, or the attempts
// are exhausted. The last error is returned unwrapped.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := policy.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	isRetryable := policy.IsRetryable
	if isRetryable == nil {
		isRetryable = func(error) bool { return true }
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		// n is zero-based: after the first failure n is 0 and attempt 2 is next.
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return policy.Backoff(n + 2)
		}),
	}
	if policy.MaxDelay > 0 {
		opts = append(opts, retry.MaxDelay(policy.MaxDelay))
	}
	if policy.OnRetry != nil {
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			policy.OnRetry(n+1, err)
		}))
	}
	if policy.Timer != nil {
		opts = append(opts, retry.WithTimer(policy.Timer))
	}

	var value T
	err := retry.Do(func() error {
		var err error
		value, err = fn(ctx)
		return err
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}
