package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner drops sessions left untouched for longer than ttl.
type Cleaner struct {
	storage  Storage
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(storage Storage, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		storage:  storage,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled. A zero ttl or interval disables it.
func (c *Cleaner) Run(ctx context.Context) error {
	if c == nil || c.storage == nil || c.ttl <= 0 || c.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("session cleaner stopped", slog.String("reason", ctx.Err().Error()))
			return nil
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup removes expired sessions once.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	sessions, err := c.storage.ListSessions(ctx)
	if err != nil {
		c.log.Error("session cleaner failed to list sessions", slog.Any("error", err))
		return 0
	}

	removed := 0
	for _, session := range sessions {
		if ctx.Err() != nil {
			return removed
		}
		if time.Since(session.UpdatedAt) <= c.ttl {
			continue
		}

		if err := c.storage.DeleteSession(ctx, session.UserID); err != nil {
			c.log.Error("session cleaner failed to delete session", slog.Int64("user_id", session.UserID), slog.Any("error", err))
			continue
		}
		removed++
		c.log.Info("stale session cleared", slog.Int64("user_id", session.UserID), slog.String("state", string(session.State)))
	}

	return removed
}
