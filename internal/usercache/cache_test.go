package usercache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cashflow-bot/internal/domain"
	"github.com/Proton-105/cashflow-bot/internal/testutil"
)

func TestCache_RegisteredUser(t *testing.T) {
	ctx := context.Background()
	client, mr := testutil.Redis(t)
	cache := NewCache(client)

	missing, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	u := domain.NewUser(7, "alice")
	u.Registered = true
	require.NoError(t, cache.Set(ctx, u, time.Minute))
	assert.True(t, mr.Exists("cashflow:user:7"))

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Name)
	assert.True(t, got.Registered)
	assert.True(t, got.IsValid())

	mr.FastForward(2 * time.Minute)
	expired, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestCache_UnknownUser(t *testing.T) {
	ctx := context.Background()
	client, mr := testutil.Redis(t)
	cache := NewCache(client)

	require.NoError(t, cache.SetUnknown(ctx, 9, time.Minute))
	got, err := cache.Get(ctx, 9)
	assert.ErrorIs(t, err, ErrUnknownUser)
	assert.Nil(t, got)

	require.NoError(t, cache.Forget(ctx, 9))
	got, err = cache.Get(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.SetUnknown(ctx, 9, time.Minute))
	mr.FastForward(time.Minute)
	got, err = cache.Get(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_BackendDown(t *testing.T) {
	client, mr := testutil.Redis(t)
	cache := NewCache(client)
	mr.Close()

	_, err := cache.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownUser)
}

func TestCache_NilIsDisabled(t *testing.T) {
	var cache *Cache
	got, err := cache.Get(context.Background(), 1)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, cache.Set(context.Background(), domain.NewUser(1, "a"), time.Minute))
	assert.NoError(t, cache.SetUnknown(context.Background(), 1, time.Minute))
	assert.NoError(t, cache.Forget(context.Background(), 1))
}
