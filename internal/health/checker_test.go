package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_AllHealthy(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Options{Driver: database.DriverSQLite, DSN: database.MemoryDSN})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewChecker(testLogger(), time.Second)
	checker.AddCheck("database", NewDBChecker(db))
	checker.AddCheck("redis", NewRedisChecker(client))
	checker.AddCheck("", NewDBChecker(db))
	checker.AddCheck("nil", nil)

	report := checker.Check(ctx)
	assert.Equal(t, StatusOK, report.Status)
	assert.Equal(t, map[string]string{"database": StatusOK, "redis": StatusOK}, report.Components)

	rec := httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChecker_Degraded(t *testing.T) {
	checker := NewChecker(testLogger(), time.Second)
	checker.AddCheck("events", CheckFunc(func(context.Context) error { return errors.New("broker down") }))
	checker.AddCheck("telegram", NewTelegramChecker(nil))
	checker.AddCheck("redis", NewRedisChecker(nil))

	rec := httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "broker down", report.Components["events"])
	assert.NotEqual(t, StatusOK, report.Components["telegram"])
	assert.NotEqual(t, StatusOK, report.Components["redis"])
}

func TestTelegramChecker(t *testing.T) {
	assert.NoError(t, NewTelegramChecker(&telebot.Bot{Me: &telebot.User{ID: 1}}).HealthCheck(context.Background()))
	assert.Error(t, NewTelegramChecker(&telebot.Bot{}).HealthCheck(context.Background()))
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
