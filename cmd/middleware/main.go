package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ThomasWega/TG-Middleware/internal/playerdata"
	"github.com/ThomasWega/TG-Middleware/pkg/cache"
	"github.com/ThomasWega/TG-Middleware/pkg/config"
	"github.com/ThomasWega/TG-Middleware/pkg/event"
	"github.com/ThomasWega/TG-Middleware/pkg/logger"
	"github.com/ThomasWega/TG-Middleware/pkg/rabbit"
	"github.com/ThomasWega/TG-Middleware/pkg/server"
	"github.com/ThomasWega/TG-Middleware/pkg/store"
	"github.com/ThomasWega/TG-Middleware/pkg/worker"
)

func main() {
	// 1. Load config
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l.Info("middleware initializing", zap.String("env", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize the store. An empty URI runs the middleware in
	// degraded mode: fetches yield absent, updates are no-ops.
	var st store.Store
	if cfg.Postgres.URI != "" {
		pg, err := store.New(ctx, store.Config{
			URI:             cfg.Postgres.URI,
			MinConns:        int32(cfg.Postgres.MinConns),
			MaxConns:        int32(cfg.Postgres.MaxConns),
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
		}, l)
		if err != nil {
			l.Error("failed to connect to postgres", err)
			os.Exit(1)
		}
		defer pg.Close()
		st = pg
	} else {
		l.Warn("postgres not configured, running without a store")
	}

	// 4. Initialize redis
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			l.Error("failed to connect to redis", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	} else {
		l.Warn("redis not configured, running without the cache mirror")
	}

	// 5. Start the shared worker pool
	pool := worker.New(l, cfg.Workers.Count, cfg.Workers.QueueDepth)
	pool.Start(ctx)

	// 6. Connect to rabbitmq and declare the topology. A topology
	// failure aborts startup.
	channel, err := rabbit.Dial(cfg.Rabbit, pool, l)
	if err != nil {
		l.Error("failed to initialize rabbitmq", err)
		os.Exit(1)
	}
	defer channel.Close()

	// Publishing is gated on channel readiness
	if err := channel.AwaitReady(ctx); err != nil {
		l.Fatal("rabbitmq channel never became ready", err)
	}

	// 7. Wire the services
	mirror := cache.NewRedisMirror(redisClient, l)
	identity := cache.NewIdentityCache(redisClient, st, l)
	dispatcher := event.NewDispatcher(channel, l)
	dispatcher.Subscribe(func(id uuid.UUID) {
		l.Debug("player data updated", zap.String("uuid", id.String()))
	})
	if err := dispatcher.Listen(rabbit.PlayerDataUpdateQueue.Name); err != nil {
		l.Error("failed to consume update queue", err)
		os.Exit(1)
	}

	fetcher := playerdata.NewFetcher(st, identity, pool, l)
	updater := playerdata.NewUpdater(st, mirror, dispatcher, pool, l)

	// 8. Start the HTTP server: observability plus the player data API
	obsServer := server.New(cfg.HTTPAddr, func() bool {
		return channel.State() == rabbit.StateReady
	}, l)
	obsServer.Handle("/players/", playerdata.NewAPI(fetcher, updater, l).Handler())
	go func() {
		if err := obsServer.Start(); err != nil {
			l.Error("observability server failed", err)
		}
	}()

	l.Info("middleware started")
	<-ctx.Done()
	l.Info("middleware stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	obsServer.Shutdown(shutdownCtx)
	if err := pool.Shutdown(shutdownCtx); err != nil {
		l.Error("worker pool shutdown failed", err)
	}
}
