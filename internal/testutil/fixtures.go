package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Proton-105/cashflow-bot/internal/database"
	"github.com/Proton-105/cashflow-bot/internal/repository"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SQLiteStore opens a migrated in-memory database and returns a store over it.
func SQLiteStore(t testing.TB) *repository.SQLStore {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Options{Driver: database.DriverSQLite, DSN: database.MemoryDSN})
	AssertNoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	AssertNoError(t, database.NewMigrator(db, Logger()).ApplyEmbedded(ctx))

	return repository.NewSQLStore(db, database.DriverSQLite, Logger())
}

// Redis starts miniredis and returns a client connected to it.
func Redis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}
