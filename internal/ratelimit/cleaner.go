package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cleaner periodically drops expired entries and empty limiter keys from Redis.
type Cleaner struct {
	client   *redis.Client
	log      *slog.Logger
	interval time.Duration
	maxAge   time.Duration
}

// NewCleaner constructs a Cleaner. Entries older than maxAge are removed.
func NewCleaner(client *redis.Client, log *slog.Logger, interval, maxAge time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		client:   client,
		log:      log,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run starts the cleaner loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) error {
	if c.client == nil || c.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped")
			return nil
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup runs one pass and returns the number of deleted keys.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	cutoff := "(" + strconv.FormatInt(time.Now().Add(-c.maxAge).UnixMilli(), 10)
	removed := 0

	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		pipe := c.client.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
		card := pipe.ZCard(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			c.log.Warn("cleanup pipeline failed", slog.String("key", key), slog.Any("error", err))
			continue
		}

		if card.Val() == 0 {
			if err := c.client.Del(ctx, key).Err(); err != nil {
				c.log.Warn("failed to delete empty rate limit key", slog.String("key", key), slog.Any("error", err))
				continue
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Error("rate limit scan failed", slog.Any("error", err))
	}

	if removed > 0 {
		c.log.Info("rate limit keys cleaned", slog.Int("keys_removed", removed))
	}
	return removed
}
