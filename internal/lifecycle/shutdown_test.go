package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_ReverseOrderAndJoinedErrors(t *testing.T) {
	s := NewShutdown(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var order []string
	record := func(name string, err error) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return err
		}
	}

	boom := errors.New("boom")
	s.Register("database", record("database", nil))
	s.Register("redis", record("redis", boom))
	s.Register("nil", nil)
	s.Register("events", Closer(func() error {
		order = append(order, "events")
		return nil
	}))

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "redis: boom")
	assert.Equal(t, []string{"events", "redis", "database"}, order)

	assert.NoError(t, s.Execute(context.Background()), "hooks run once")
}

func TestShutdown_ExpiredContext(t *testing.T) {
	s := NewShutdown(nil)

	called := false
	s.Register("database", func(context.Context) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
