package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Proton-105/cashflow-bot/internal/bot"
	"github.com/Proton-105/cashflow-bot/internal/conversation"
	"github.com/Proton-105/cashflow-bot/internal/database"
	apperrors "github.com/Proton-105/cashflow-bot/internal/errors"
	"github.com/Proton-105/cashflow-bot/internal/events"
	"github.com/Proton-105/cashflow-bot/internal/health"
	"github.com/Proton-105/cashflow-bot/internal/idempotency"
	"github.com/Proton-105/cashflow-bot/internal/ledger"
	"github.com/Proton-105/cashflow-bot/internal/lifecycle"
	"github.com/Proton-105/cashflow-bot/internal/menu"
	"github.com/Proton-105/cashflow-bot/internal/middleware"
	"github.com/Proton-105/cashflow-bot/internal/ratelimit"
	"github.com/Proton-105/cashflow-bot/internal/repository"
	"github.com/Proton-105/cashflow-bot/internal/state"
	"github.com/Proton-105/cashflow-bot/internal/user"
	"github.com/Proton-105/cashflow-bot/internal/usercache"
	"github.com/Proton-105/cashflow-bot/pkg/config"
	"github.com/Proton-105/cashflow-bot/pkg/graceful"
	"github.com/Proton-105/cashflow-bot/pkg/logger"
	"github.com/Proton-105/cashflow-bot/pkg/metrics"
	appredis "github.com/Proton-105/cashflow-bot/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "cashflow bot: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Sentry.Enabled {
		if err := logger.InitSentry(cfg.Sentry, cfg.AppEnv); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	logs, err := logger.New(cfg.Logger, cfg.Sentry.Enabled)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logs.Logger
	slog.SetDefault(log)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("logger", lifecycle.Closer(logs.Close))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdown.Execute(closeCtx); err != nil {
			log.Error("shutdown finished with errors", slog.Any("error", err))
		}
	}()

	config.Watch(v, func(updated *config.Config) {
		logs.Level.Set(logger.ParseLevel(updated.Logger.Level))
		log.Info("config reloaded", slog.String("log_level", updated.Logger.Level))
	}, func(err error) {
		log.Warn("config reload rejected", slog.Any("error", err))
	})

	log.Info("starting cashflow bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("database", cfg.Database.Driver),
		slog.Bool("redis", cfg.Redis.Enabled),
	)

	db, err := database.Open(ctx, database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	shutdown.Register("database", lifecycle.Closer(db.Close))

	if err := database.NewMigrator(db, log).ApplyEmbedded(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		rdb, err = appredis.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		shutdown.Register("redis", lifecycle.Closer(rdb.Close))
	}

	store := repository.NewSQLStore(db, cfg.Database.Driver, log)
	ledgerService := ledger.NewService(store, log)

	var cache *usercache.Cache
	if rdb != nil {
		cache = usercache.NewCache(rdb)
	}
	users := user.NewService(repository.NewUserRepository(store, log), cache, log)
	if cfg.Admin.ID > 0 {
		name := cfg.Admin.Name
		if name == "" {
			name = strconv.FormatInt(cfg.Admin.ID, 10)
		}
		if err := users.EnsureAdministrator(ctx, cfg.Admin.ID, name); err != nil {
			return fmt.Errorf("ensure administrator: %w", err)
		}
	}

	var (
		sessions    state.Storage     = state.NewMemoryStorage()
		locker      state.Locker      = state.NewLocalLocker()
		dedup       idempotency.Store = idempotency.NewMemoryStore()
		memLimiter                    = ratelimit.NewMemoryLimiter()
		limiter     ratelimit.Limiter = memLimiter
		limitPurger *ratelimit.Cleaner
	)
	if rdb != nil {
		if cfg.Session.Storage == "redis" {
			sessions = state.NewRedisStorage(rdb, log, cfg.Session.TTL)
		}
		locker = state.NewRedisLocker(rdb, log)
		limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb, log), memLimiter, log)
		dedup = idempotency.NewRedisStore(rdb, log)
		limitPurger = ratelimit.NewCleaner(rdb, log, 10*time.Minute, time.Hour)
	}

	var (
		publisher events.Publisher = events.Nop{}
		broker    health.Checkable
	)
	if cfg.Events.Enabled {
		amqpPublisher, err := events.DialAMQP(cfg.Events.URL, cfg.Events.Exchange, cfg.Events.RoutingKey, log)
		if err != nil {
			return fmt.Errorf("connect event broker: %w", err)
		}
		publisher = amqpPublisher
		broker = amqpPublisher
	}
	shutdown.Register("events", lifecycle.Closer(publisher.Close))

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled, metrics.RecordError)
	tgBot, err := bot.New(bot.Settings(cfg.Bot), log, bot.Deps{
		ErrorHandler: errHandler,
		RateLimit:    middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), log),
		Idempotency:  idempotency.NewManager(dedup, idempotency.DefaultTTL, log),
	})
	if err != nil {
		return err
	}

	engine := conversation.NewEngine(state.NewStack(sessions, log), ledgerService, users, tgBot.Messenger(), log, conversation.Options{
		Graph:     menu.DefaultGraph(),
		Locker:    locker,
		Publisher: publisher,
		Recorder:  metrics.Recorder{},
	})
	tgBot.Mount(engine)
	if err := tgBot.PublishCommands(); err != nil {
		log.Warn("failed to publish bot commands", slog.Any("error", err))
	}

	checker := health.NewChecker(log, 2*time.Second)
	checker.AddCheck("database", health.NewDBChecker(db))
	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))
	if rdb != nil {
		checker.AddCheck("redis", health.NewRedisChecker(rdb))
	}
	if broker != nil {
		checker.AddCheck("events", broker)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", health.LivenessHandler())
	mux.Handle("/readyz", checker.ReadinessHandler())
	server := graceful.NewServer(log, ":"+strconv.Itoa(cfg.Server.Port), middleware.HTTPLogging(log)(mux), cfg.Server.ShutdownTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})
	g.Go(func() error {
		return state.NewCleaner(sessions, log, cfg.Session.TTL, cfg.Session.CleanupInterval).Run(gctx)
	})
	g.Go(func() error {
		return metrics.NewSessionCollector(sessions, 30*time.Second).Run(gctx)
	})
	g.Go(func() error {
		return memLimiter.Run(gctx, 10*time.Minute, time.Hour)
	})
	if limitPurger != nil {
		g.Go(func() error {
			return limitPurger.Run(gctx)
		})
	}
	g.Go(func() error {
		go tgBot.Start()
		<-gctx.Done()
		tgBot.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("cashflow bot stopped")
	return nil
}
