package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/bot/handlers"
	"github.com/Proton-105/cashflow-bot/internal/conversation"
	apperrors "github.com/Proton-105/cashflow-bot/internal/errors"
	"github.com/Proton-105/cashflow-bot/internal/menu"
	"github.com/Proton-105/cashflow-bot/internal/middleware"
	"github.com/Proton-105/cashflow-bot/pkg/config"
	"github.com/Proton-105/cashflow-bot/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func offlineBot(t *testing.T) *telebot.Bot {
	t.Helper()

	tb, err := telebot.NewBot(telebot.Settings{Token: "test", Offline: true})
	require.NoError(t, err)
	return tb
}

func textUpdate(userID int64, text string) telebot.Update {
	return telebot.Update{
		ID: 1,
		Message: &telebot.Message{
			Sender: &telebot.User{ID: userID, FirstName: "Alice", LastName: "Smith"},
			Chat:   &telebot.Chat{ID: userID},
			Text:   text,
		},
	}
}

// replyContext records what handlers send back.
type replyContext struct {
	telebot.Context
	sent []any
}

func (c *replyContext) Send(what any, _ ...any) error {
	c.sent = append(c.sent, what)
	return nil
}

type fakeEngine struct {
	updates []conversation.Update
	ctxs    []context.Context
}

func (e *fakeEngine) Handle(ctx context.Context, upd conversation.Update) error {
	e.updates = append(e.updates, upd)
	e.ctxs = append(e.ctxs, ctx)
	return nil
}

type fakeSender struct {
	to   telebot.Recipient
	what any
	opts []any
	err  error
}

func (s *fakeSender) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	s.to, s.what, s.opts = to, what, opts
	return &telebot.Message{}, s.err
}

func TestToUpdate(t *testing.T) {
	tb := offlineBot(t)

	t.Run("text", func(t *testing.T) {
		upd, ok := handlers.ToUpdate(tb.NewContext(textUpdate(7, "  12.50 ")))
		require.True(t, ok)
		assert.Equal(t, int64(7), upd.ChatID)
		assert.Equal(t, int64(7), upd.User.ID)
		assert.Equal(t, "Alice Smith", upd.User.Name)
		assert.Equal(t, "12.50", upd.Text)
		assert.Empty(t, upd.Command)
	})

	t.Run("command", func(t *testing.T) {
		upd, ok := handlers.ToUpdate(tb.NewContext(textUpdate(7, "/start@cashflow_bot now")))
		require.True(t, ok)
		assert.Equal(t, "start", upd.Command)
		assert.Empty(t, upd.Text)
	})

	t.Run("command in capitals", func(t *testing.T) {
		upd, ok := handlers.ToUpdate(tb.NewContext(textUpdate(7, "/Reg@cashflow_bot")))
		require.True(t, ok)
		assert.Equal(t, "reg", upd.Command)
	})

	t.Run("callback", func(t *testing.T) {
		upd, ok := handlers.ToUpdate(tb.NewContext(telebot.Update{
			Callback: &telebot.Callback{
				Sender: &telebot.User{ID: 7, Username: "alice"},
				Message: &telebot.Message{
					Chat: &telebot.Chat{ID: 99},
				},
				Data: "\fcategory:3",
			},
		}))
		require.True(t, ok)
		assert.Equal(t, int64(99), upd.ChatID)
		assert.Equal(t, "alice", upd.User.Name)
		assert.Equal(t, menu.ActionCategory, upd.Action)
		assert.Equal(t, "3", upd.Payload)
	})

	t.Run("empty callback", func(t *testing.T) {
		_, ok := handlers.ToUpdate(tb.NewContext(telebot.Update{
			Callback: &telebot.Callback{Sender: &telebot.User{ID: 7}},
		}))
		assert.False(t, ok)
	})

	t.Run("no sender", func(t *testing.T) {
		_, ok := handlers.ToUpdate(tb.NewContext(telebot.Update{Message: &telebot.Message{Text: "hi"}}))
		assert.False(t, ok)
	})
}

func TestConversationHandler(t *testing.T) {
	tb := offlineBot(t)
	engine := &fakeEngine{}

	c := tb.NewContext(textUpdate(7, "/cancel"))
	handler := middleware.Correlation(handlers.Conversation(engine))
	require.NoError(t, handler(c))

	require.Len(t, engine.updates, 1)
	assert.Equal(t, "cancel", engine.updates[0].Command)
	assert.NotEmpty(t, logger.CorrelationIDFromContext(engine.ctxs[0]))
}

func TestRouter(t *testing.T) {
	tb := offlineBot(t)
	router := NewRouter()

	var trail []string
	trace := func(name string) telebot.MiddlewareFunc {
		return func(next telebot.HandlerFunc) telebot.HandlerFunc {
			return func(c telebot.Context) error {
				trail = append(trail, name)
				return next(c)
			}
		}
	}
	router.Use(trace("outer"), trace("inner"))
	router.RegisterCommand(CommandHelp, func(telebot.Context) error {
		trail = append(trail, "help")
		return nil
	})

	require.NoError(t, router.Route(tb.NewContext(textUpdate(7, "hello"))))
	assert.Empty(t, trail, "no default handler yet")

	router.SetDefault(func(telebot.Context) error {
		trail = append(trail, "default")
		return nil
	})

	require.NoError(t, router.Route(tb.NewContext(textUpdate(7, "/help"))))
	require.NoError(t, router.Route(tb.NewContext(textUpdate(7, "/start"))))
	assert.Equal(t, []string{"outer", "inner", "help", "outer", "inner", "default"}, trail)

	trail = nil
	require.NoError(t, router.Route(tb.NewContext(textUpdate(7, "/Help"))))
	assert.Equal(t, []string{"outer", "inner", "help"}, trail)
}

func TestMessenger(t *testing.T) {
	sender := &fakeSender{}
	messenger := NewMessenger(sender)

	require.NoError(t, messenger.Send(context.Background(), 5, "Choose an action:", menu.DefaultGraph().Layout(menu.KeyboardStart)))
	assert.Equal(t, telebot.ChatID(5), sender.to)
	assert.Equal(t, "Choose an action:", sender.what)
	require.Len(t, sender.opts, 1)
	markup, ok := sender.opts[0].(*telebot.ReplyMarkup)
	require.True(t, ok)
	assert.NotEmpty(t, markup.InlineKeyboard)

	require.NoError(t, messenger.Send(context.Background(), 5, "Recorded!", nil))
	assert.Empty(t, sender.opts)

	sender.err = errors.New("blocked by user")
	assert.Error(t, messenger.Send(context.Background(), 5, "hi", nil))
}

func TestErrorHandlingMiddleware(t *testing.T) {
	var codes []string
	errHandler := apperrors.NewHandler(testLogger(), false, func(code, _ string) {
		codes = append(codes, code)
	})

	c := &replyContext{Context: offlineBot(t).NewContext(textUpdate(7, "x"))}
	handler := ErrorHandlingMiddleware(errHandler)(func(telebot.Context) error {
		return apperrors.NewValidationError("amount must be positive")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, []any{"Invalid input. amount must be positive"}, c.sent)
	assert.Equal(t, []string{"E100"}, codes)
}

func TestRecoveryMiddleware(t *testing.T) {
	errHandler := apperrors.NewHandler(testLogger(), false, nil)
	c := &replyContext{Context: offlineBot(t).NewContext(textUpdate(7, "x"))}

	handler := RecoveryMiddleware(testLogger(), errHandler)(func(telebot.Context) error {
		panic("nil map")
	})

	require.NoError(t, handler(c))
	require.Len(t, c.sent, 1)
	assert.Equal(t, fallbackErrorText, c.sent[0])
}

func TestSettings(t *testing.T) {
	polling := Settings(config.BotConfig{Token: "t", Mode: "polling"})
	_, ok := polling.Poller.(*telebot.LongPoller)
	assert.True(t, ok)

	webhook := Settings(config.BotConfig{Token: "t", Mode: "webhook", WebhookListen: ":8443", WebhookURL: "https://example.com/bot"})
	hook, ok := webhook.Poller.(*telebot.Webhook)
	require.True(t, ok)
	assert.Equal(t, ":8443", hook.Listen)
	assert.Equal(t, "https://example.com/bot", hook.Endpoint.PublicURL)
}

func TestNewMountsEngine(t *testing.T) {
	b, err := New(telebot.Settings{Token: "test", Offline: true}, testLogger(), Deps{})
	require.NoError(t, err)

	engine := &fakeEngine{}
	b.Mount(engine)

	require.NoError(t, b.router.Route(b.Telebot().NewContext(textUpdate(7, "25"))))
	require.Len(t, engine.updates, 1)
	assert.Equal(t, "25", engine.updates[0].Text)
	assert.NotNil(t, b.Messenger())
}
