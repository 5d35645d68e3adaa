package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultTTL covers the window in which Telegram may redeliver an update.
const DefaultTTL = 24 * time.Hour

// ErrDuplicate is returned when the key was already handled or is being handled.
var ErrDuplicate = errors.New("update already handled")

// Operation is the work guarded by a key.
type Operation func(ctx context.Context) error

// Manager runs an Operation at most once per key.
type Manager struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

// NewManager wraps store. A non-positive ttl falls back to DefaultTTL.
func NewManager(store Store, ttl time.Duration, log *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// Execute claims key and runs fn. A failed fn releases the key so a redelivery can run again.
// When the store itself fails, fn runs unguarded.
func (m *Manager) Execute(ctx context.Context, key string, fn Operation) error {
	if fn == nil {
		return errors.New("operation fn cannot be nil")
	}

	claimed, err := m.store.Claim(ctx, key, m.ttl)
	if err != nil {
		m.log.WarnContext(ctx, "idempotency store unavailable, running unguarded", slog.String("key", key), slog.Any("error", err))
		return fn(ctx)
	}
	if !claimed {
		return ErrDuplicate
	}

	if err := fn(ctx); err != nil {
		if releaseErr := m.store.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			m.log.WarnContext(ctx, "failed to release idempotency key", slog.String("key", key), slog.Any("error", releaseErr))
		}
		return err
	}
	return nil
}
