package ratelimit

import (
	"errors"
	"slices"
	"time"

	"github.com/Proton-105/cashflow-bot/pkg/config"
)

// ErrRuleDisabled is returned for a rule without a window.
var ErrRuleDisabled = errors.New("rate limit rule is disabled")

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	config config.RateLimitConfig
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// Enabled reports whether limits apply at all.
func (r *Rules) Enabled() bool {
	return r != nil && r.config.Enabled
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	return slices.Contains(r.config.Whitelist, userID)
}

// GetGlobalLimit returns the limit shared by all users.
func (r *Rules) GetGlobalLimit() (int, time.Duration, error) {
	return parseRule(r.config.Global)
}

// GetPerUserLimit returns the per-user rate limiting rule.
func (r *Rules) GetPerUserLimit() (int, time.Duration, error) {
	return parseRule(r.config.PerUser)
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return rule.Limit, 0, ErrRuleDisabled
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	return rule.Limit, window, nil
}
