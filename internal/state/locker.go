package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "user:lock:%d"
	lockTTL            = 5 * time.Second
)

// Locker serializes the handling of updates from one user.
type Locker interface {
	// Lock acquires the user lock and returns the function releasing it.
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}

// LocalLocker queues updates of the same user behind a per-user mutex.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocalLocker creates a process-local locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[int64]*userLock)}
}

// Lock blocks until no other update of the user is being handled.
func (l *LocalLocker) Lock(_ context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &userLock{}
		l.locks[userID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}, nil
}

// RedisLocker takes a short-lived Redis lock so that several bot replicas never handle one user at once.
// A held lock is reported as ErrStateLocked instead of waiting.
type RedisLocker struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisLocker creates a distributed locker.
func NewRedisLocker(client *redis.Client, log *slog.Logger) *RedisLocker {
	if log == nil {
		log = slog.Default()
	}
	return &RedisLocker{client: client, log: log}
}

// Lock acquires the user lock or returns ErrStateLocked.
func (l *RedisLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf(userLockKeyPattern, userID)
	acquired, err := l.client.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		l.log.Error("failed to acquire user state lock", "user_id", userID, "error", err)
		return nil, err
	}

	if !acquired {
		l.log.Warn("user state lock already held", "user_id", userID)
		return nil, ErrStateLocked
	}

	return func() {
		if err := l.client.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			l.log.Error("failed to release user state lock", "user_id", userID, "error", err)
		}
	}, nil
}
