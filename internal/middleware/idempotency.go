package middleware

import (
	"context"
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/idempotency"
)

// Idempotency drops updates Telegram delivers more than once. botID scopes update ids.
func Idempotency(manager *idempotency.Manager, botID int64, log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		if manager == nil {
			return next
		}

		return func(c telebot.Context) error {
			updateID := c.Update().ID
			if updateID == 0 {
				return next(c)
			}

			key := idempotency.UpdateKey(botID, updateID)
			err := manager.Execute(Context(c), key, func(ctx context.Context) error {
				return next(c)
			})
			if errors.Is(err, idempotency.ErrDuplicate) {
				log.Info("duplicate update skipped", slog.Int("update_id", updateID))
				return nil
			}
			return err
		}
	}
}
