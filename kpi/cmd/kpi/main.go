package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/telhawk-systems/telhawk-kpi/common/logging"
	natsclient "github.com/telhawk-systems/telhawk-kpi/common/messaging/nats"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/aggregator"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/client"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/config"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/handlers"
	kpimw "github.com/telhawk-systems/telhawk-kpi/kpi/internal/middleware"
	kpinats "github.com/telhawk-systems/telhawk-kpi/kpi/internal/nats"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/ratelimit"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/server"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/service"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/sources"
	"github.com/telhawk-systems/telhawk-kpi/kpi/pkg/tokens"
)

var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "override listen address")
	migrations := flag.String("migrations", "file://migrations", "migration source URL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("kpi"))
	logging.SetDefault(logger)

	slog.Info("Starting KPI service",
		slog.String("version", version),
		slog.Int("port", cfg.Server.Port),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("log_level", cfg.Logging.Level),
	)

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	if *addr != "" {
		listenAddr = *addr
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	st, err := client.NewStore(startCtx, cfg.Store, logger.Logger)
	if err != nil {
		slog.Error("Failed to connect to event store", logging.Error(err))
		os.Exit(1)
	}
	slog.Info("Connected to event store", slog.String("backend", cfg.Store.Backend), slog.String("url", cfg.Store.URL))

	repo, err := openSources(startCtx, cfg.DatabaseURL, *migrations)
	if err != nil {
		slog.Error("Failed to open source repository", logging.Error(err))
		os.Exit(1)
	}
	defer repo.Close()

	agg := aggregator.New(st, aggregator.Options{
		MaxBuckets:  cfg.Store.MaxBuckets,
		AutoBuckets: cfg.Store.AutoBuckets,
		Logger:      logger.Logger,
	})
	svc := service.NewKPIService(version, agg, st, repo, logger.Logger)
	h := handlers.NewHandler(svc, logger.Logger)

	routerOpts := server.RouterOptions{
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	}

	if cfg.Auth.JWTSecret != "" {
		routerOpts.Auth = kpimw.NewAuthMiddleware(tokens.NewTokenGenerator(cfg.Auth.JWTSecret, 0), logger.Logger)
		slog.Info("Bearer token authentication enabled")
	} else {
		slog.Warn("Bearer token authentication disabled (auth.jwt_secret is empty)")
	}

	if cfg.Redis.Enabled {
		limiter, err := ratelimit.NewRedisRateLimiter(startCtx, cfg.Redis.URL, cfg.Redis.RequestsPerWindow, cfg.Redis.Window())
		if err != nil {
			slog.Warn("Failed to connect to Redis (continuing without rate limiting)", logging.Error(err))
		} else {
			defer limiter.Close()
			routerOpts.Limiter = limiter
			routerOpts.RateWindow = cfg.Redis.Window()
			slog.Info("Rate limiting enabled",
				slog.Int("requests_per_window", cfg.Redis.RequestsPerWindow),
				slog.Int("window_seconds", cfg.Redis.WindowSeconds))
		}
	}

	// Initialize NATS client (optional - service works without it)
	var natsHandler *kpinats.Handler
	var natsConn *natsclient.Client
	if cfg.NATS.Enabled {
		natsConn, err = natsclient.NewClient(natsclient.Config{
			URL:            cfg.NATS.URL,
			Name:           "kpi-service",
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWaitDuration(),
			Timeout:        5 * time.Second,
			HandlerTimeout: cfg.NATS.JobTimeoutDuration(),
			Logger:         logger.Logger,
		})
		if err != nil {
			slog.Warn("Failed to connect to NATS (continuing without NATS)",
				slog.String("url", cfg.NATS.URL),
				logging.Error(err))
		} else {
			slog.Info("Connected to NATS", slog.String("url", cfg.NATS.URL))
			svc.WithMessaging(natsConn)

			natsHandler = kpinats.NewHandler(natsConn, svc)
			if err := natsHandler.Start(context.Background()); err != nil {
				slog.Warn("Failed to start NATS handler", logging.Error(err))
				natsHandler = nil
			}
		}
	} else {
		slog.Info("NATS messaging disabled")
	}

	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      server.NewRouter(h, routerOpts),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("KPI service listening", slog.String("addr", listenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", logging.Error(err))
			os.Exit(1)
		}
	}()

	<-shutdownCtx.Done()
	slog.Info("Shutdown signal received")

	// Stop taking NATS jobs before draining HTTP.
	if natsHandler != nil {
		if err := natsHandler.Stop(); err != nil {
			slog.Warn("NATS handler shutdown error", logging.Error(err))
		}
	}
	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			slog.Warn("NATS drain error", logging.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Graceful shutdown failed", logging.Error(err))
	}
}

// openSources runs migrations and connects Postgres when databaseURL is
// set, and falls back to the in-memory repository otherwise.
func openSources(ctx context.Context, databaseURL, migrationsURL string) (sources.Repository, error) {
	if databaseURL == "" {
		slog.Info("No database configured, sources are kept in memory")
		return sources.NewInMemoryRepository(), nil
	}

	slog.Info("Running database migrations")
	m, err := migrate.New(migrationsURL, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		slog.Warn("Failed to close migrator", slog.Any("source_error", srcErr), slog.Any("database_error", dbErr))
	}
	slog.Info("Database migrations completed")

	return sources.NewPostgresRepository(ctx, databaseURL)
}
