package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/catalog"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfgErr := config.Load()

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	if cfgErr != nil {
		logger.Fatal("failed to load config", zap.Error(cfgErr))
	}

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	if err := store.Migrate(ctx, pool, config.MigrationsPath()); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	sources, err := loadSources(ctx, pool)
	if err != nil {
		logger.Fatal("failed to load catalog domains", zap.Error(err))
	}
	if len(sources) == 0 {
		logger.Warn("no catalog domains found; seed catalog_slots before starting sessions")
	} else {
		names := make([]string, 0, len(sources))
		for name := range sources {
			names = append(names, name)
		}
		logger.Info("catalog domains loaded", zap.Strings("domains", names))
	}

	app := api.NewApp(pool, sources, logger)

	app.Expirer.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Expirer.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(config.LogLevel()); err == nil {
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func loadSources(ctx context.Context, pool *pgxpool.Pool) (map[string]domain.KnowledgeSource, error) {
	names, err := catalog.ListDomains(ctx, pool)
	if err != nil {
		return nil, err
	}

	sources := make(map[string]domain.KnowledgeSource, len(names))
	for _, name := range names {
		src, err := catalog.NewPostgresSource(ctx, pool, name)
		if err != nil {
			return nil, err
		}
		sources[name] = src
	}
	return sources, nil
}
