package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/cashflow-bot/pkg/logger"
)

// Handler logs an error, reports serious ones to Sentry and picks the text shown to the user.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
	record        func(code, severity string)
}

// NewHandler creates a Handler. record may be nil.
func NewHandler(log *slog.Logger, sentryEnabled bool, record func(code, severity string)) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if record == nil {
		record = func(string, string) {}
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
		record:        record,
	}
}

// Handle returns the user message and whether the user may simply try again.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	appErr, ok := asAppError(err)
	if !ok {
		appErr = &AppError{
			Code:        "E000",
			Message:     err.Error(),
			UserMessage: defaultUserMessage,
			Severity:    SeverityHigh,
			cause:       err,
		}
	}

	attrs := []any{
		slog.String("code", appErr.Code),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
		slog.Any("error", err),
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	level := slog.LevelError
	if appErr.Severity == SeverityLow {
		level = slog.LevelWarn
	}
	h.log.Log(ctx, level, "update failed", attrs...)
	h.record(appErr.Code, string(appErr.Severity))

	if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
		h.sendToSentry(err, appErr)
	}

	userMessage := appErr.UserMessage
	if userMessage == "" {
		userMessage = defaultUserMessage
	}
	return userMessage, appErr.Retryable
}

func (h *Handler) sendToSentry(err error, appErr *AppError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("code", appErr.Code)
		scope.SetTag("severity", string(appErr.Severity))
		sentry.CaptureException(err)
	})
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}
