package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	path := writeConfig(t, "bot:\n  token: abc\n")

	cfg, _, err := LoadFile(path, "test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "abc", cfg.Bot.Token)
	assert.Equal(t, "polling", cfg.Bot.Mode)
	assert.Equal(t, 10*time.Second, cfg.Bot.Timeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/cashflow.db", cfg.Database.DSN())
	assert.Equal(t, "memory", cfg.Session.Storage)
	assert.Equal(t, time.Duration(0), cfg.Session.TTL)
	assert.Equal(t, 30, cfg.RateLimit.PerUser.Limit)
	assert.Equal(t, "invoice.recorded", cfg.Events.RoutingKey)
}

func TestLoadFile_EnvOverride(t *testing.T) {
	path := writeConfig(t, "bot:\n  token: from-file\nadmin:\n  id: 0\n")
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("ADMIN_ID", "42")

	cfg, _, err := LoadFile(path, "test")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Bot.Token)
	assert.Equal(t, int64(42), cfg.Admin.ID)
}

func TestLoadFile_Validation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "missing token", body: "bot:\n  mode: polling\n"},
		{name: "unknown driver", body: "bot:\n  token: x\ndatabase:\n  driver: mysql\n"},
		{name: "postgres without host", body: "bot:\n  token: x\ndatabase:\n  driver: postgres\n  name: db\n"},
		{name: "events without url", body: "bot:\n  token: x\nevents:\n  enabled: true\n  exchange: e\n"},
		{name: "unknown session storage", body: "bot:\n  token: x\nsession:\n  storage: disk\n"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := LoadFile(writeConfig(t, tc.body), "test")
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_PostgresDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "postgres",
		Host:     "db",
		Port:     5432,
		User:     "cashflow",
		Password: "p@ss",
		Name:     "ledger",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://cashflow:p%40ss@db:5432/ledger?sslmode=disable", cfg.DSN())
}
