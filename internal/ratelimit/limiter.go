// Package ratelimit throttles updates per user and across the bot.
package ratelimit

import (
	"context"
	"time"
)

// KeyPrefix namespaces limiter keys in Redis.
const KeyPrefix = "ratelimit:"

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter describes a rate-limiting strategy.
// A rejected request is reported through Result.Allowed; errors mean the backend failed.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

func newResult(allowed bool, limit, count int, resetAt time.Time) *Result {
	return &Result{
		Allowed:   allowed,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}
}
