// Package main is the entry point for the Ladle API server.
// Ladle is a multi-tenant recipe management service with token authentication.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/ladle/internal/cache/memory"
	rediscache "github.com/prn-tf/ladle/internal/cache/redis"
	"github.com/prn-tf/ladle/internal/config"
	"github.com/prn-tf/ladle/internal/handler"
	"github.com/prn-tf/ladle/internal/lock"
	"github.com/prn-tf/ladle/internal/repository"
	"github.com/prn-tf/ladle/internal/repository/postgres"
	"github.com/prn-tf/ladle/internal/repository/sqlite"
	"github.com/prn-tf/ladle/internal/service"
	"github.com/prn-tf/ladle/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Ladle server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	repos, dbHealth, closeDB, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	// Cache and distributed locks
	var (
		cache  repository.Cache
		locker lock.Locker
	)
	if cfg.Redis.Enabled {
		redisCache, err := rediscache.NewCache(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisCache.Close()
		cache = redisCache
		locker = lock.NewRedisLocker(redisCache)
	} else {
		memCache := memory.NewCache()
		defer memCache.Stop()
		cache = memCache
		locker = lock.NewMemoryLocker()
	}

	// Image storage
	images, err := openImageStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	// Services
	userService := service.NewUserService(repos.User, cfg.Auth.BcryptCost, logger)
	tokenService := service.NewTokenService(repos.Token, repos.User, cache, cfg.Auth.TokenCacheTTL, logger)
	tagService := service.NewAttributeService(repos.Tag, logger)
	ingredientService := service.NewAttributeService(repos.Ingredient, logger)
	recipeService := service.NewRecipeService(repos.Recipe, repos.Tag, repos.Ingredient, locker, images, logger)

	// HTTP
	var metrics *handler.Metrics
	if cfg.Metrics.Enabled {
		metrics = handler.NewMetrics()
	}

	router := handler.NewRouter(handler.RouterConfig{
		UserHandler:       handler.NewUserHandler(userService, tokenService, logger),
		TagHandler:        handler.NewAttributeHandler(tagService, logger),
		IngredientHandler: handler.NewAttributeHandler(ingredientService, logger),
		RecipeHandler:     handler.NewRecipeHandler(recipeService, cfg.Server.MaxUploadSize, logger),
		AuthMiddleware:    handler.CreateAuthMiddleware(tokenService),
		Images:            images,
		DBHealth:          dbHealth,
		Metrics:           metrics,
		MetricsPath:       cfg.Metrics.Path,
		Logger:            logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// openDatabase connects to the configured backend, runs migrations and
// returns the repository set.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, func(), error) {
	switch cfg.Driver {
	case repository.DriverPostgres:
		db, err := connectPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return postgres.NewRepositories(db), db, func() { db.Close() }, nil

	case repository.DriverSQLite:
		db, err := sqlite.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return sqlite.NewRepositories(db), db, func() { db.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// connectPostgres retries the initial connection; the database container
// often comes up after the server does.
func connectPostgres(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*postgres.DB, error) {
	const (
		attempts = 10
		interval = 2 * time.Second
	)

	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err == nil {
			return db, nil
		}
		lastErr = err

		logger.Warn().Err(err).Int("attempt", i+1).Msg("database not ready, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", attempts, lastErr)
}

func openImageStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.ImageStore, error) {
	switch cfg.Backend {
	case "s3":
		store, err := storage.NewS3Store(ctx, cfg.S3, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewFilesystemStore(cfg.MediaDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize filesystem storage: %w", err)
		}
		return store, nil
	}
}

// newLogger builds the root logger from configuration.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
