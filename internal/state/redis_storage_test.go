package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cashflow-bot/internal/domain"
)

func TestRedisStorage_SaveAndGet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), 0)
	ctx := context.Background()

	invoice := domain.NewExpense(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	invoice.Currency = &domain.Currency{ID: 1, Code: "USD", Lifecycle: domain.LifecycleLoaded}
	invoice.SetAmountText("12,5")

	session := &Session{
		UserID:  123,
		User:    domain.NewUser(123, "Ann"),
		State:   StateAwaitingCommit,
		Invoice: invoice,
	}

	require.NoError(t, storage.SaveSession(ctx, session))

	result, err := storage.GetSession(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingCommit, result.State)
	assert.True(t, result.User.IsValid())
	assert.Equal(t, "12.5", result.Invoice.Amount.String())
	assert.Equal(t, "2024-01-02 03:04:05", result.Invoice.DateTime)
	assert.Equal(t, domain.LifecycleLoaded, result.Invoice.Currency.Lifecycle)
}

func TestRedisStorage_GetNotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)

	session, err := storage.GetSession(context.Background(), 999)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_DeleteAndList(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, storage.SaveSession(ctx, &Session{UserID: id, State: StateIdle}))
	}

	require.NoError(t, storage.DeleteSession(ctx, 2))

	sessions, err := storage.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	require.NoError(t, storage.DeleteAll(ctx))
	sessions, err = storage.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCleaner_RemovesStaleSessions(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	require.NoError(t, storage.SaveSession(ctx, &Session{UserID: 1, State: StateAwaitingAmount}))
	require.NoError(t, storage.SaveSession(ctx, &Session{UserID: 2, State: StateIdle}))

	storage.sessions[1].UpdatedAt = time.Now().Add(-2 * time.Hour)

	cleaner := NewCleaner(storage, testLogger(), time.Hour, time.Minute)
	assert.Equal(t, 1, cleaner.Cleanup(ctx))

	_, err := storage.GetSession(ctx, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = storage.GetSession(ctx, 2)
	assert.NoError(t, err)
}

func TestCleaner_DisabledWithoutTTL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	cleaner := NewCleaner(NewMemoryStorage(), testLogger(), 0, time.Millisecond)
	assert.NoError(t, cleaner.Run(ctx))
}
