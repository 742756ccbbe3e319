package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rawrpantsu/archive/internal/cache"
	"github.com/rawrpantsu/archive/internal/config"
	"github.com/rawrpantsu/archive/internal/logging"
	"github.com/rawrpantsu/archive/internal/metrics"
	"github.com/rawrpantsu/archive/internal/server"
	"github.com/rawrpantsu/archive/internal/twitch"
	"github.com/rawrpantsu/archive/internal/vods"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	registry := prometheus.NewRegistry()
	cacheMetrics := metrics.NewCacheMetrics(registry)
	twitchMetrics := metrics.NewTwitchMetrics(registry)

	client := twitch.NewClient(twitch.DefaultEndpoints(), cfg.HTTPTimeout, twitchMetrics)
	tokens := setupTokens(cfg, client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool := setupDB(ctx, cfg)
	rdb := setupRedis(ctx, cfg)
	cancel()

	repo := vods.NewRepository(pool)
	store := cache.NewRedisStore(rdb)
	cachedVods := cache.NewCachedService(repo, store, cfg.CacheTTL, cacheMetrics)

	srv := server.NewServer(cfg, server.Deps{
		Vods:          cachedVods,
		Playback:      twitch.NewPlaybackResolver(client),
		Subscriptions: twitch.NewSubscriptionManager(client, tokens),
		Live:          twitch.NewAPI(client, tokens),
		WebhookSecret: tokens.WebhookSecret(),
		Registry:      registry,
		Redis:         redisPinger{rdb},
		Postgres:      pool,
	})

	done := runGracefulShutdown(srv, pool, rdb)

	slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("server stopped")
}

func setupTokens(cfg *config.Config, client *twitch.Client) *twitch.TokenManager {
	store := twitch.NewFileStore(cfg.CredentialsFile)
	tokens, err := twitch.NewTokenManager(client, store)
	if err != nil {
		slog.Error("failed to load twitch credentials", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// A rejected token triggers a refresh inside Check; re-validate once so a
	// stale credentials file self-heals on boot.
	valid, err := tokens.Check(ctx)
	if err != nil {
		slog.Warn("could not validate twitch app token", "error", err)
		return tokens
	}
	if !valid {
		if valid, err = tokens.Check(ctx); err != nil || !valid {
			slog.Warn("twitch app token still invalid after refresh", "error", err)
		}
	}

	return tokens
}

func setupDB(ctx context.Context, cfg *config.Config) *pgxpool.Pool {
	pool, err := vods.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := vods.RunMigrations(ctx, pool); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("failed to parse redis URL", "error", err)
		os.Exit(1)
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	return rdb
}

// redisPinger adapts the go-redis client to the server's health-check shape.
type redisPinger struct {
	rdb *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func runGracefulShutdown(srv *server.Server, pool *pgxpool.Pool, rdb *goredis.Client) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutdown signal received, cleaning up")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		pool.Close()
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}

		close(done)
	}()

	return done
}
