package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPattern  = "session:%d"
	sessionScanPattern = "session:*"
	scanBatchCount     = 100
)

// RedisStorage persists sessions in Redis as JSON so they survive restarts.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStorage initializes a Redis-backed Storage. A zero ttl keeps sessions until they are cleared.
func NewRedisStorage(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// GetSession returns the stored session or ErrSessionNotFound when absent.
func (s *RedisStorage) GetSession(ctx context.Context, userID int64) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}

		s.log.Error("failed to get session from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.log.Error("failed to decode session", "user_id", userID, "error", err)
		return nil, err
	}

	return &session, nil
}

// SaveSession stores the session.
func (s *RedisStorage) SaveSession(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(session)
	if err != nil {
		s.log.Error("failed to encode session", "user_id", session.UserID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, sessionKey(session.UserID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save session in redis", "user_id", session.UserID, "error", err)
		return err
	}

	return nil
}

// DeleteSession removes the stored session for the given user.
func (s *RedisStorage) DeleteSession(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		s.log.Error("failed to delete session", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// ListSessions retrieves every stored session by scanning Redis keys.
func (s *RedisStorage) ListSessions(ctx context.Context) ([]*Session, error) {
	var result []*Session

	err := s.scan(ctx, func(keys []string) error {
		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return err
			}

			var session Session
			if err := json.Unmarshal(data, &session); err != nil {
				s.log.Error("failed to decode session", "key", key, "error", err)
				continue
			}
			result = append(result, &session)
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to list sessions", "error", err)
		return nil, err
	}

	return result, nil
}

// DeleteAll removes every session key.
func (s *RedisStorage) DeleteAll(ctx context.Context) error {
	return s.scan(ctx, func(keys []string) error {
		if len(keys) == 0 {
			return nil
		}
		return s.client.Del(ctx, keys...).Err()
	})
}

func (s *RedisStorage) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, sessionScanPattern, scanBatchCount).Result()
		if err != nil {
			return err
		}
		if err := fn(keys); err != nil {
			return err
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf(sessionKeyPattern, userID)
}
