// Package usercache keeps registration lookups in Redis so the per-message access check
// skips the database.
package usercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/cashflow-bot/internal/domain"
)

const keyPrefix = "cashflow:user:"

// unknownMarker is stored for ids that have no user row.
const unknownMarker = "-"

// ErrUnknownUser reports a cached miss: the id was looked up recently and has no user.
var ErrUnknownUser = errors.New("user is not registered")

// Cache stores registered users and recent misses.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a user cache backed by the provided Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get returns the cached user, ErrUnknownUser for a cached miss, or nil when nothing is cached.
// A nil cache always reports nothing cached.
func (c *Cache) Get(ctx context.Context, userID int64) (*domain.User, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("get cached user %d: %w", userID, err)
	case string(data) == unknownMarker:
		return nil, ErrUnknownUser
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode cached user %d: %w", userID, err)
	}
	return &user, nil
}

// Set caches a user under its own id.
func (c *Cache) Set(ctx context.Context, user *domain.User, ttl time.Duration) error {
	if c == nil || c.client == nil || user == nil {
		return nil
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode cached user %d: %w", user.ID, err)
	}
	if err := c.client.Set(ctx, cacheKey(user.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("set cached user %d: %w", user.ID, err)
	}
	return nil
}

// SetUnknown remembers that userID has no user row.
func (c *Cache) SetUnknown(ctx context.Context, userID int64, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Set(ctx, cacheKey(userID), unknownMarker, ttl).Err(); err != nil {
		return fmt.Errorf("set unknown user %d: %w", userID, err)
	}
	return nil
}

// Forget drops whatever is cached for userID. Called when a registration is approved.
func (c *Cache) Forget(ctx context.Context, userID int64) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("forget cached user %d: %w", userID, err)
	}
	return nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}
