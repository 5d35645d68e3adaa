package bot

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/Proton-105/cashflow-bot/internal/errors"
	"github.com/Proton-105/cashflow-bot/internal/middleware"
)

const fallbackErrorText = "Something went wrong. Please try again later."

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				ctx := middleware.Context(c)
				log.ErrorContext(ctx, "panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

				userMsg := fallbackErrorText
				if errHandler != nil {
					if msg, _ := errHandler.Handle(ctx, fmt.Errorf("panic recovered: %v", r)); msg != "" {
						userMsg = msg
					}
				}
				if sendErr := c.Send(userMsg); sendErr != nil {
					log.ErrorContext(ctx, "failed to notify user about panic", slog.Any("error", sendErr))
				}
				err = nil
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler *apperrors.Handler) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			userMsg := fallbackErrorText
			if errHandler != nil {
				if msg, _ := errHandler.Handle(middleware.Context(c), err); msg != "" {
					userMsg = msg
				}
			}
			return c.Send(userMsg)
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			start := time.Now()
			ctx := middleware.Context(c)

			userID := int64(0)
			if sender := c.Sender(); sender != nil {
				userID = sender.ID
			}
			action := middleware.Action(c)

			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// AnswerCallbackMiddleware stops the client spinner once a button press is handled.
func AnswerCallbackMiddleware(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			err := next(c)
			if c.Callback() != nil {
				if respondErr := c.Respond(); respondErr != nil {
					log.WarnContext(middleware.Context(c), "failed to answer callback", slog.Any("error", respondErr))
				}
			}
			return err
		}
	}
}
