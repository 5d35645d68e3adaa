package errors

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often and how slowly an operation is retried.
type RetryPolicy struct {
	Attempts   int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultRetryPolicy is used for calls to external services such as the event broker.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:   3,
	Initial:    100 * time.Millisecond,
	Max:        5 * time.Second,
	Multiplier: 2,
}

// WithRetry runs fn until it succeeds, returns a non-retryable error or the policy is exhausted.
// Only AppErrors marked Retryable are retried. Ledger writes never go through here.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	if fn == nil {
		return nil
	}

	var err error
	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn()
		if err == nil || !IsRetryable(err) || attempt >= policy.Attempts {
			return err
		}

		timer := time.NewTimer(policy.backoff(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// IsRetryable reports whether err is an AppError that may succeed on a second attempt.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}
	return false
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.Initial
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
		if delay >= p.Max {
			return p.Max
		}
	}
	return min(delay, p.Max)
}
