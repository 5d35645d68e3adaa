package errors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Handle(t *testing.T) {
	var recorded []string
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false, func(code, severity string) {
		recorded = append(recorded, code+"/"+severity)
	})

	msg, retry := h.Handle(context.Background(), NewValidationError("amount is zero"))
	assert.Equal(t, "Invalid input. amount is zero", msg)
	assert.False(t, retry)

	msg, retry = h.Handle(context.Background(), NewDatabaseError(errors.New("disk full")))
	assert.Equal(t, "Temporary problem, please try again later.", msg)
	assert.True(t, retry)

	msg, retry = h.Handle(context.Background(), errors.New("boom"))
	assert.Equal(t, defaultUserMessage, msg)
	assert.False(t, retry)

	assert.Equal(t, []string{"E100/low", "E200/high", "E000/high"}, recorded)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewSessionError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "E410", err.Code)
}

func TestWithRetry(t *testing.T) {
	policy := RetryPolicy{Attempts: 2, Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2}

	t.Run("retryable error is retried until exhausted", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), policy, func() error {
			calls++
			return NewExternalAPIError("broker", errors.New("down"))
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("plain error is not retried", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), policy, func() error {
			calls++
			return errors.New("bad request")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("success after failure", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), policy, func() error {
			calls++
			if calls == 1 {
				return NewExternalAPIError("broker", nil)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, policy, func() error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{Initial: 100 * time.Millisecond, Max: 300 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, p.backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.backoff(2))
	assert.Equal(t, 300*time.Millisecond, p.backoff(3))
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(BreakerSettings{FailureRatio: 0.5, MinRequests: 2, OpenTimeout: time.Minute, TrialRequests: 1})
	cb.now = func() time.Time { return now }

	fail := errors.New("fail")
	assert.ErrorIs(t, cb.Call(func() error { return fail }), fail)
	assert.Equal(t, BreakerClosed, cb.State())
	assert.ErrorIs(t, cb.Call(func() error { return fail }), fail)
	assert.Equal(t, BreakerOpen, cb.State())

	called := false
	assert.ErrorIs(t, cb.Call(func() error { called = true; return nil }), ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, BreakerClosed, cb.State())
}
