package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cashflow-bot/internal/testutil"
)

func TestRedisLimiter_PerUserBudget(t *testing.T) {
	client, mr := testutil.Redis(t)
	limiter := NewRedisLimiter(client, testutil.Logger())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		result, err := limiter.Check(ctx, "user:42", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "message %d", i)
		assert.Equal(t, 3-i, result.Remaining)
	}

	result, err := limiter.Check(ctx, "user:42", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)

	other, err := limiter.Check(ctx, "user:43", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "users do not share a budget")

	assert.True(t, mr.Exists(KeyPrefix+"user:42"))
	assert.Equal(t, 2*time.Minute, mr.TTL(KeyPrefix+"user:42"))
}

func TestRedisLimiter_WindowSlides(t *testing.T) {
	client, _ := testutil.Redis(t)
	limiter := NewRedisLimiter(client, testutil.Logger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "global", 2, 200*time.Millisecond)
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "global", 2, 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	time.Sleep(300 * time.Millisecond)

	result, err = limiter.Check(ctx, "global", 2, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_DisabledLimitRejects(t *testing.T) {
	client, mr := testutil.Redis(t)
	limiter := NewRedisLimiter(client, testutil.Logger())

	result, err := limiter.Check(context.Background(), "user:1", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.False(t, mr.Exists(KeyPrefix+"user:1"))
}

func TestRedisLimiter_BackendErrors(t *testing.T) {
	_, err := NewRedisLimiter(nil, testutil.Logger()).Check(context.Background(), "user:1", 1, time.Minute)
	assert.Error(t, err)

	client, mr := testutil.Redis(t)
	mr.Close()
	result, err := NewRedisLimiter(client, testutil.Logger()).Check(context.Background(), "user:1", 1, time.Minute)
	assert.Error(t, err)
	assert.Nil(t, result)
}
