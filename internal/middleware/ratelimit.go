package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/Proton-105/cashflow-bot/internal/ratelimit"
)

const rateLimitedText = "Too many requests. Try again later."

// RateLimitMiddleware enforces per-user and global rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle returns a telebot middleware that enforces the configured limits.
// Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || !m.rules.Enabled() {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil || m.rules.IsWhitelisted(sender.ID) {
			return next(c)
		}

		if !m.allow(c, fmt.Sprintf("user:%d", sender.ID), m.rules.GetPerUserLimit) ||
			!m.allow(c, "global", m.rules.GetGlobalLimit) {
			m.log.WarnContext(Context(c), "rate limit exceeded", slog.Int64("user_id", sender.ID))
			if c.Callback() != nil {
				return nil
			}
			return c.Send(rateLimitedText)
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) allow(c telebot.Context, key string, rule func() (int, time.Duration, error)) bool {
	limit, window, err := rule()
	if err != nil {
		if !errors.Is(err, ratelimit.ErrRuleDisabled) {
			m.log.Error("invalid rate limit rule", slog.String("key", key), slog.Any("error", err))
		}
		return true
	}

	result, err := m.limiter.Check(Context(c), key, limit, window)
	if err != nil {
		m.log.Warn("rate limiter error", slog.String("key", key), slog.Any("error", err))
		return true
	}
	return result.Allowed
}
