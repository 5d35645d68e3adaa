package logger

import (
	"context"
	"log/slog"
	"strings"
)

const maskedValue = "***"

// Attribute keys whose values never reach the log. A key matches when it equals one of these
// or ends with "_" plus one of them, so "bot_token" and "amqp_url" are masked too.
var sensitiveKeys = []string{
	"password",
	"token",
	"secret",
	"dsn",
	"url",
	"authorization",
}

// MaskingHandler hides credentials before records reach the wrapped handler.
type MaskingHandler struct {
	next slog.Handler
}

// NewMaskingHandler wraps next.
func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		masked[i] = maskAttr(attr)
	}
	return &MaskingHandler{next: h.next.WithAttrs(masked)}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		masked.AddAttrs(maskAttr(attr))
		return true
	})
	return h.next.Handle(ctx, masked)
}

func maskAttr(attr slog.Attr) slog.Attr {
	if isSensitiveKey(attr.Key) {
		return slog.String(attr.Key, maskedValue)
	}

	value := attr.Value.Resolve()
	if value.Kind() != slog.KindGroup {
		return slog.Attr{Key: attr.Key, Value: value}
	}

	group := value.Group()
	masked := make([]slog.Attr, len(group))
	for i, a := range group {
		masked[i] = maskAttr(a)
	}
	return slog.Attr{Key: attr.Key, Value: slog.GroupValue(masked...)}
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if key == sensitive || strings.HasSuffix(key, "_"+sensitive) {
			return true
		}
	}
	return false
}
