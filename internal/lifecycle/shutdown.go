// Package lifecycle releases resources when the bot stops.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Closer adapts a Close method to a shutdown hook.
func Closer(close func() error) func(context.Context) error {
	return func(context.Context) error { return close() }
}

// Shutdown runs hooks in reverse registration order so that resources
// close after everything that depends on them.
type Shutdown struct {
	mu    sync.Mutex
	hooks []hook
	log   *slog.Logger
}

// NewShutdown constructs a new Shutdown coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log}
}

// Register adds a named shutdown hook.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, hook{name: name, fn: fn})
}

// Execute runs every hook once, even after failures, and joins their errors.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("hook_count", len(hooks)))

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}

		if err := h.fn(ctx); err != nil {
			s.log.Error("shutdown hook failed", slog.String("hook", h.name), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}
		s.log.Debug("shutdown hook completed", slog.String("hook", h.name))
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))
	return errors.Join(errs...)
}
