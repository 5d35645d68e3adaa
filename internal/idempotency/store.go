// Package idempotency makes sure an update redelivered by Telegram is handled once.
package idempotency

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store claims keys for a limited time.
type Store interface {
	// Claim reports true when the key was free and is now held for ttl.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisStore claims keys with SET NX so several bot replicas share one view.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a Redis-backed Store.
func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, redisKey(key), time.Now().Unix(), ttl).Result()
	if err != nil {
		s.log.Error("failed to claim idempotency key", slog.String("key", key), slog.Any("error", err))
		return false, err
	}
	return acquired, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		s.log.Error("failed to release idempotency key", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}

func redisKey(key string) string {
	return "idempotency:" + key
}

// MemoryStore is the single-process Store used when Redis is disabled.
type MemoryStore struct {
	mu      sync.Mutex
	claimed map[string]time.Time
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-process Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claimed: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, expiresAt := range s.claimed {
		if !expiresAt.After(now) {
			delete(s.claimed, k)
		}
	}

	if _, ok := s.claimed[key]; ok {
		return false, nil
	}
	s.claimed[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claimed, key)
	s.mu.Unlock()
	return nil
}
