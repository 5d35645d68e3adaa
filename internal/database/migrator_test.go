package database

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.up.sql":   {Data: []byte("SELECT 1")},
		"m/0001_a.up.sql":   {Data: []byte("SELECT 1")},
		"m/0001_a.down.sql": {Data: []byte("SELECT 1")},
		"m/readme.md":       {Data: []byte("docs")},
	}

	names, err := ListMigrations(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, names)
}

func TestMigrator_ApplyEmbeddedIsRepeatable(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, Options{Driver: DriverSQLite, DSN: MemoryDSN})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := NewMigrator(db, testLogger())
	require.NoError(t, migrator.ApplyEmbedded(ctx))
	require.NoError(t, migrator.ApplyEmbedded(ctx))

	for _, name := range []string{"categories", "currencies", "users", "cash_flow"} {
		var count int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, name)
	}
}

func TestMigrator_FailedMigrationReturnsError(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, Options{Driver: DriverSQLite, DSN: MemoryDSN})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fsys := fstest.MapFS{
		"bad/0001_bad.up.sql": {Data: []byte("CREATE TABLEX nope")},
	}

	err = NewMigrator(db, testLogger()).ApplyFS(ctx, fsys, "bad")
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mysql"})
	assert.Error(t, err)
}
