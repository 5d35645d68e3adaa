// Package logger builds the application slog.Logger.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Proton-105/cashflow-bot/pkg/config"
)

// Logger bundles the slog logger with its adjustable level and the resources it holds open.
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar

	closers []io.Closer
}

// New creates a logger writing to stdout and, when configured, to a rotated file.
// Records at error level are also sent to Sentry when sentryEnabled is set.
func New(cfg config.LoggerConfig, sentryEnabled bool) (*Logger, error) {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Level))

	l := &Logger{Level: level}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		l.closers = append(l.closers, file)
		out = io.MultiWriter(os.Stdout, file)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	if sentryEnabled {
		handler = slogmulti.Fanout(handler, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
	}

	l.Logger = slog.New(NewMaskingHandler(handler))
	return l, nil
}

// InitSentry configures the global Sentry client.
func InitSentry(cfg config.SentryConfig, env string) error {
	environment := cfg.Environment
	if environment == "" {
		environment = env
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		SampleRate:       cfg.SampleRate,
		AttachStacktrace: true,
	})
}

// ParseLevel maps a config level onto slog. Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close flushes and closes file outputs.
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
