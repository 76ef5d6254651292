package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/af-corp/chatbot-gateway/internal/auth"
	"github.com/af-corp/chatbot-gateway/internal/chat"
	"github.com/af-corp/chatbot-gateway/internal/config"
	"github.com/af-corp/chatbot-gateway/internal/gateway"
	"github.com/af-corp/chatbot-gateway/internal/ratelimit"
	"github.com/af-corp/chatbot-gateway/internal/router"
	"github.com/af-corp/chatbot-gateway/internal/store"
	"github.com/af-corp/chatbot-gateway/internal/telemetry"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	if err := run(*configDir); err != nil {
		slog.Error("chatbot exited", "error", err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(configDir, slog.Default())
	if err := loader.Load(); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg := loader.Config()

	logger := newLogger(cfg.Telemetry)
	slog.SetDefault(logger)

	if err := loader.Watch(ctx); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	checks := map[string]gateway.Check{}

	st, closeStore, err := openStore(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := openRedis(ctx, cfg.Redis, logger)
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	registry := router.Init(loader.Providers())
	if len(registry.ListAvailable()) == 0 {
		logger.Warn("no AI providers configured; every send will fail")
	}
	health := router.NewHealthTracker()
	metrics := telemetry.NewMetrics()

	svc := chat.NewService(st, registry, chat.SettingsFromConfig(cfg), health, metrics)
	loader.OnReload(func() {
		svc.UpdateSettings(chat.SettingsFromConfig(loader.Config()))
		logger.Info("chat settings reloaded")
	})

	clients := auth.NewCachedClientStore(st, rdb, cfg.RateLimit.AuthCacheTTL)
	budget := ratelimit.NewBudgetTracker(rdb)
	limiter := ratelimit.NewLimiter(rdb)

	handler := gateway.NewRouter(gateway.Deps{
		Handler: gateway.NewHandler(svc, budget, func() int64 { return loader.Config().Chat.MaxUploadBytes }),
		Health:  gateway.HealthHandler(version, registry, health, checks),
		Auth:    auth.Middleware(clients),
		DomainCheck: auth.DomainCheck(func() auth.DomainSettings {
			sc := loader.Config().Server
			return auth.DomainSettings{Enforce: sc.EnforceAllowedDomains, AllowLocalhost: sc.AllowLocalhostOrigins}
		}),
		RateLimit: ratelimit.Middleware(limiter, budget,
			func() config.RateLimitConfig { return loader.Config().RateLimit }, metrics),
		AllowedOrigins: func() []string { return loader.Config().Server.AllowedOrigins },
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	servers := []*http.Server{srv}
	if cfg.Telemetry.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Telemetry.MetricsPort),
			Handler: mux,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			logger.Info("listener starting", "addr", s.Addr, "version", version)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", s.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), loader.Config().Server.GracefulShutdown)
		defer cancel()
		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", s.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("chatbot stopped")
	return nil
}

func newLogger(cfg config.TelemetryConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// openStore connects the configured storage backend and registers its
// health check.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, checks map[string]gateway.Check) (store.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("using in-memory storage; data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	case "postgres", "":
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("parse database config: %w", err)
		}
		if cfg.Database.MaxOpenConns > 0 {
			poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		}
		if cfg.Database.MaxIdleConns > 0 {
			poolCfg.MinConns = int32(min(cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns))
		}
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("database not reachable (server will start but requests will fail)", "error", err)
		} else {
			logger.Info("database connected")
		}
		checks["database"] = pool.Ping
		return store.NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) *redis.Client {
	if len(cfg.Addresses) == 0 || cfg.Addresses[0] == "" {
		logger.Info("redis not configured (rate limits and auth cache disabled)")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addresses[0],
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable (rate limits and auth cache disabled)", "error", err)
		rdb.Close()
		return nil
	}
	logger.Info("redis connected")
	return rdb
}
