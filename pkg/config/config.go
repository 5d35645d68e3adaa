package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime configuration for the cashflow bot.
type Config struct {
	AppEnv    string          `mapstructure:"-"`
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Events    EventsConfig    `mapstructure:"events"`
}

type BotConfig struct {
	Token         string        `mapstructure:"token" validate:"required"`
	Mode          string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout       time.Duration `mapstructure:"timeout"`
	WebhookListen string        `mapstructure:"webhook_listen" validate:"required_if=Mode webhook"`
	WebhookURL    string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	Path            string        `mapstructure:"path" validate:"required_if=Driver sqlite"`
	Host            string        `mapstructure:"host" validate:"required_if=Driver postgres"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required_if=Driver postgres"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the data source name for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver != "postgres" {
		return c.Path
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	PoolSize int    `mapstructure:"pool_size" validate:"gte=0"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SessionConfig struct {
	Storage         string        `mapstructure:"storage" validate:"oneof=memory redis"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}

type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Global    RateLimitRule `mapstructure:"global"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

type AdminConfig struct {
	ID   int64  `mapstructure:"id" validate:"gte=0"`
	Name string `mapstructure:"name"`
}

type EventsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url" validate:"required_if=Enabled true"`
	Exchange   string `mapstructure:"exchange" validate:"required_if=Enabled true"`
	RoutingKey string `mapstructure:"routing_key"`
}
