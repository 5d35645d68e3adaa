// Package bot wires the Telegram transport to the conversation engine.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/cashflow-bot/internal/errors"
	"github.com/Proton-105/cashflow-bot/internal/idempotency"
	"github.com/Proton-105/cashflow-bot/internal/middleware"
	"github.com/Proton-105/cashflow-bot/pkg/config"
)

// Deps are the optional collaborators of the update pipeline.
type Deps struct {
	ErrorHandler *apperrors.Handler
	RateLimit    *middleware.RateLimitMiddleware
	Idempotency  *idempotency.Manager
}

// Bot wraps telebot.Bot with the router and middleware chain.
type Bot struct {
	telebot *telebot.Bot
	router  *Router
	log     *slog.Logger
}

// Settings builds telebot settings for the configured update mode.
func Settings(cfg config.BotConfig) telebot.Settings {
	settings := telebot.Settings{Token: cfg.Token}

	if cfg.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{Timeout: cfg.Timeout}
	}

	return settings
}

// New builds a telegram bot instance. Call Mount before Start.
func New(settings telebot.Settings, log *slog.Logger, deps Deps) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	var botID int64
	if tb.Me != nil {
		botID = tb.Me.ID
	}

	router := NewRouter()
	router.Use(
		RecoveryMiddleware(log, deps.ErrorHandler),
		middleware.Correlation,
		LoggingMiddleware(log),
		middleware.Metrics,
		AnswerCallbackMiddleware(log),
		middleware.Idempotency(deps.Idempotency, botID, log),
	)
	if deps.RateLimit != nil {
		router.Use(deps.RateLimit.Handle)
	}
	router.Use(ErrorHandlingMiddleware(deps.ErrorHandler))
	router.RegisterCommand(CommandHelp, handlers.Help)

	b := &Bot{
		telebot: tb,
		router:  router,
		log:     log,
	}

	tb.Handle(telebot.OnText, router.Route)
	tb.Handle(telebot.OnCallback, router.Route)

	return b, nil
}

// Messenger returns the outbound side of the bot for the engine.
func (b *Bot) Messenger() *Messenger {
	return NewMessenger(b.telebot)
}

// Mount routes every update without a dedicated command to engine.
func (b *Bot) Mount(engine handlers.Engine) {
	b.router.SetDefault(handlers.Conversation(engine))
}

// PublishCommands registers the command list shown by Telegram clients.
func (b *Bot) PublishCommands() error {
	commands := make([]telebot.Command, 0, len(menuCommands))
	for _, cmd := range menuCommands {
		commands = append(commands, telebot.Command{Text: cmd.Text, Description: cmd.Description})
	}
	return b.telebot.SetCommands(commands)
}

// Start runs the telegram bot event loop and blocks until Stop.
func (b *Bot) Start() {
	b.log.Info("starting telegram bot")
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}
