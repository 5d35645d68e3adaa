// Package middleware holds the telebot and HTTP middlewares shared by the bot.
package middleware

import (
	"context"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/menu"
	"github.com/Proton-105/cashflow-bot/pkg/logger"
)

const contextKey = "request_context"

// Context returns the request context stored on c, or context.Background.
func Context(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(contextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// SetContext stores ctx on c for the rest of the chain.
func SetContext(c telebot.Context, ctx context.Context) {
	c.Set(contextKey, ctx)
}

// Correlation attaches a correlation id to the update context.
func Correlation(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		SetContext(c, logger.WithCorrelationID(Context(c)))
		return next(c)
	}
}

// Action names the update for logs and metrics without leaking user text.
func Action(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		action, _, err := menu.DecodeCallback(cb.Data)
		if err != nil {
			return "callback"
		}
		return action
	}

	text := c.Text()
	if strings.HasPrefix(text, "/") {
		command, _, _ := strings.Cut(text, " ")
		command, _, _ = strings.Cut(command, "@")
		return strings.ToLower(command)
	}
	if text != "" {
		return "text"
	}
	return "unknown"
}
