package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cashflow-bot/internal/domain"
)

var errStorageFailure = errors.New("storage error")

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) GetSession(ctx context.Context, userID int64) (*Session, error) {
	args := m.Called(ctx, userID)
	session, _ := args.Get(0).(*Session)
	return session, args.Error(1)
}

func (m *mockStorage) SaveSession(ctx context.Context, session *Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockStorage) DeleteSession(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStorage) ListSessions(ctx context.Context) ([]*Session, error) {
	args := m.Called(ctx)
	sessions, _ := args.Get(0).([]*Session)
	return sessions, args.Error(1)
}

func (m *mockStorage) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestStack_TransitionTo(t *testing.T) {
	ctx := context.Background()
	userID := int64(42)

	testCases := []struct {
		name        string
		setupMocks  func(ms *mockStorage)
		newState    State
		expectedErr error
	}{
		{
			name: "successful transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return(&Session{UserID: userID, State: StateIdle}, nil).Once()
				ms.On("SaveSession", mock.Anything, mock.MatchedBy(func(s *Session) bool {
					return s.State == StateAwaitingCategory
				})).Return(nil).Once()
			},
			newState: StateAwaitingCategory,
		},
		{
			name: "invalid transition",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return(&Session{UserID: userID, State: StateIdle}, nil).Once()
			},
			newState:    StateAwaitingCommit,
			expectedErr: ErrInvalidTransition,
		},
		{
			name: "untracked user",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return((*Session)(nil), ErrSessionNotFound).Once()
			},
			newState:    StateAwaitingCategory,
			expectedErr: ErrSessionNotFound,
		},
		{
			name: "storage failure",
			setupMocks: func(ms *mockStorage) {
				ms.On("GetSession", mock.Anything, userID).
					Return(&Session{UserID: userID, State: StateAwaitingAmount}, nil).Once()
				ms.On("SaveSession", mock.Anything, mock.Anything).Return(errStorageFailure).Once()
			},
			newState:    StateAwaitingCommit,
			expectedErr: errStorageFailure,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			stack := NewStack(ms, testLogger())
			err := stack.TransitionTo(ctx, userID, tc.newState)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestStack_TransitionRecorder(t *testing.T) {
	ctx := context.Background()
	stack := NewStack(NewMemoryStorage(), testLogger())

	var recorded []string
	RegisterTransitionRecorder(func(from, to string) {
		recorded = append(recorded, from+"->"+to)
	})
	t.Cleanup(func() { RegisterTransitionRecorder(nil) })

	require.NoError(t, stack.AddUser(ctx, domain.NewUser(1, "Ann")))
	require.NoError(t, stack.TransitionTo(ctx, 1, StateAwaitingReportType))

	assert.Equal(t, []string{"idle->awaiting_report_type"}, recorded)
}

func TestStack_AddUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	stack := NewStack(NewMemoryStorage(), testLogger())

	require.NoError(t, stack.AddUser(ctx, domain.NewUser(1, "Ann")))
	require.NoError(t, stack.AddInvoice(ctx, 1, domain.NewExpense(time.Now())))
	require.NoError(t, stack.AddUser(ctx, domain.NewUser(1, "Other")))

	user, err := stack.UserByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)

	invoice, err := stack.InvoiceByUser(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, invoice)
}

func TestStack_PendingItems(t *testing.T) {
	ctx := context.Background()
	stack := NewStack(NewMemoryStorage(), testLogger())

	require.NoError(t, stack.AddInvoice(ctx, 5, domain.NewIncome(time.Now())))
	invoice, err := stack.InvoiceByUser(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, invoice, "untracked users are ignored")

	require.NoError(t, stack.AddUser(ctx, domain.NewUser(5, "Ann")))

	first := domain.NewIncome(time.Now())
	second := domain.NewExpense(time.Now())
	require.NoError(t, stack.AddInvoice(ctx, 5, first))
	require.NoError(t, stack.AddInvoice(ctx, 5, second))
	require.NoError(t, stack.AddReport(ctx, 5, domain.NewReport(domain.ReportIncome, time.Now())))

	invoice, err = stack.InvoiceByUser(ctx, 5)
	require.NoError(t, err)
	assert.True(t, invoice.Expense)

	report, err := stack.ReportByUser(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportIncome, report.Kind)

	require.NoError(t, stack.ClearByUser(ctx, 5))
	require.NoError(t, stack.ClearByUser(ctx, 5))

	user, err := stack.UserByID(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, user)

	st, err := stack.State(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)
}

func TestStack_ClearAll(t *testing.T) {
	ctx := context.Background()
	stack := NewStack(NewMemoryStorage(), testLogger())

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, stack.AddUser(ctx, domain.NewUser(id, "")))
	}
	require.NoError(t, stack.ClearAll(ctx))

	for _, id := range []int64{1, 2, 3} {
		user, err := stack.UserByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, user)
	}
}

func TestRedisLocker_Lock(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	locker := NewRedisLocker(client, testLogger())
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, 77)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, 77)
	assert.ErrorIs(t, err, ErrStateLocked)

	_, err = locker.Lock(ctx, 78)
	assert.NoError(t, err)

	unlock()
	_, err = locker.Lock(ctx, 77)
	assert.NoError(t, err)
}

func TestLocalLocker_SerializesUser(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock, err := locker.Lock(ctx, 1)
			if err != nil {
				t.Error(err)
				return
			}
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locker.locks)
}

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
