package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mystreets/gumshoe/internal/config"
	"github.com/mystreets/gumshoe/internal/database"
	"github.com/mystreets/gumshoe/internal/engine"
	"github.com/mystreets/gumshoe/internal/genai"
	"github.com/mystreets/gumshoe/internal/migrations"
	"github.com/mystreets/gumshoe/internal/places"
	"github.com/mystreets/gumshoe/internal/registry"
	"github.com/mystreets/gumshoe/internal/server"
	"github.com/mystreets/gumshoe/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Redis (optional, backs the places cache) ---
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")
	}

	// --- Lazy services ---
	// External collaborators are built on first use, so the process comes up
	// and serves health checks even while Gemini or Places are unreachable.
	services := registry.New(logger)
	services.Register(engine.ServiceStore, func(context.Context) (any, error) {
		return store.New(db), nil
	})
	services.Register(engine.ServiceGenAI, func(context.Context) (any, error) {
		return genai.NewClient(genai.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.GeminiTimeout,
		})
	})
	services.Register(engine.ServicePlaces, func(context.Context) (any, error) {
		return places.NewFinder(places.Config{
			APIKey: cfg.PlacesAPIKey,
			Redis:  rdb,
			Logger: logger,
		}), nil
	})
	defer services.Close()

	eng := engine.New(logger, services)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, eng, services, db, rdb, server.OpsAuth{
		User: cfg.OpsUser,
		Hash: cfg.OpsPasswordHash,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
