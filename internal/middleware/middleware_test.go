package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/idempotency"
	"github.com/Proton-105/cashflow-bot/internal/ratelimit"
	"github.com/Proton-105/cashflow-bot/pkg/config"
	"github.com/Proton-105/cashflow-bot/pkg/logger"
)

// fakeContext implements the parts of telebot.Context the middlewares touch.
type fakeContext struct {
	telebot.Context
	update telebot.Update
	store  map[string]any
	sent   []any
}

func newTextContext(updateID int, userID int64, text string) *fakeContext {
	return &fakeContext{
		update: telebot.Update{
			ID: updateID,
			Message: &telebot.Message{
				Sender: &telebot.User{ID: userID},
				Chat:   &telebot.Chat{ID: userID},
				Text:   text,
			},
		},
		store: make(map[string]any),
	}
}

func newCallbackContext(userID int64, data string) *fakeContext {
	return &fakeContext{
		update: telebot.Update{
			Callback: &telebot.Callback{
				Sender: &telebot.User{ID: userID},
				Data:   data,
			},
		},
		store: make(map[string]any),
	}
}

func (c *fakeContext) Update() telebot.Update { return c.update }
func (c *fakeContext) Callback() *telebot.Callback { return c.update.Callback }
func (c *fakeContext) Get(key string) any { return c.store[key] }
func (c *fakeContext) Set(key string, v any) { c.store[key] = v }

func (c *fakeContext) Sender() *telebot.User {
	if c.update.Callback != nil {
		return c.update.Callback.Sender
	}
	return c.update.Message.Sender
}

func (c *fakeContext) Text() string {
	if c.update.Message == nil {
		return ""
	}
	return c.update.Message.Text
}

func (c *fakeContext) Send(what any, _ ...any) error {
	c.sent = append(c.sent, what)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAction(t *testing.T) {
	tests := []struct {
		name string
		c    telebot.Context
		want string
	}{
		{name: "command", c: newTextContext(1, 1, "/start now"), want: "/start"},
		{name: "command with bot name", c: newTextContext(1, 1, "/reg@cashflow_bot"), want: "/reg"},
		{name: "command in capitals", c: newTextContext(1, 1, "/START"), want: "/start"},
		{name: "text", c: newTextContext(1, 1, "150"), want: "text"},
		{name: "callback", c: newCallbackContext(1, "\fcategory:3"), want: "category"},
		{name: "empty callback", c: newCallbackContext(1, ""), want: "callback"},
		{name: "nil", c: nil, want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Action(tt.c))
		})
	}
}

func TestCorrelation(t *testing.T) {
	c := newTextContext(1, 1, "hi")

	var got string
	err := Correlation(func(c telebot.Context) error {
		got = logger.CorrelationIDFromContext(Context(c))
		return nil
	})(c)

	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Equal(t, context.Background(), Context(nil))
}

func TestRateLimitMiddleware(t *testing.T) {
	rules := ratelimit.NewRules(config.RateLimitConfig{
		Enabled:   true,
		PerUser:   config.RateLimitRule{Limit: 2, Window: "1m"},
		Whitelist: []int64{42},
	})
	mw := NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), rules, testLogger())

	calls := 0
	handler := mw.Handle(func(telebot.Context) error {
		calls++
		return nil
	})

	var last *fakeContext
	for i := 0; i < 3; i++ {
		last = newTextContext(i+1, 7, "hi")
		require.NoError(t, handler(last))
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, []any{rateLimitedText}, last.sent)

	cb := newCallbackContext(7, "cancel")
	require.NoError(t, handler(cb))
	assert.Empty(t, cb.sent)
	assert.Equal(t, 2, calls)

	for i := 0; i < 5; i++ {
		require.NoError(t, handler(newTextContext(10+i, 42, "hi")))
	}
	assert.Equal(t, 7, calls)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	rules := ratelimit.NewRules(config.RateLimitConfig{
		PerUser: config.RateLimitRule{Limit: 1, Window: "1m"},
	})
	handler := NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), rules, testLogger()).Handle(func(telebot.Context) error {
		return nil
	})

	for i := 0; i < 3; i++ {
		c := newTextContext(i+1, 7, "hi")
		require.NoError(t, handler(c))
		assert.Empty(t, c.sent)
	}
}

func TestIdempotency(t *testing.T) {
	manager := idempotency.NewManager(idempotency.NewMemoryStore(), time.Hour, testLogger())

	calls := 0
	handler := Idempotency(manager, 100, testLogger())(func(telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, handler(newTextContext(5, 1, "hi")))
	require.NoError(t, handler(newTextContext(5, 1, "hi")))
	require.NoError(t, handler(newTextContext(6, 1, "hi")))
	require.NoError(t, handler(newTextContext(0, 1, "hi")))
	require.NoError(t, handler(newTextContext(0, 1, "hi")))
	assert.Equal(t, 4, calls)

	other := Idempotency(manager, 200, testLogger())(func(telebot.Context) error {
		calls++
		return nil
	})
	require.NoError(t, other(newTextContext(5, 1, "hi")))
	assert.Equal(t, 5, calls, "another bot sees its own update 5")
}

func TestHTTPLogging(t *testing.T) {
	var correlationID string
	handler := HTTPLogging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, correlationID)
}
