// @title        Accounts API
// @version      1.0
// @description  CRUD and derived queries over user accounts.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	goredis "github.com/redis/go-redis/v9"

	"github.com/msvcdojo/accounts-service/internal/api"
	"github.com/msvcdojo/accounts-service/internal/core/ports"
	"github.com/msvcdojo/accounts-service/internal/core/service"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/config"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/db"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/db/redis"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/http/handlers"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/queue"
	"github.com/msvcdojo/accounts-service/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log := logger.Get()
		log.Fatal().Err(err).Msg("accounts service stopped")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: "accounts"})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "accounts",
		Env:     cfg.Env,
	})

	// --- Storage ---
	store, err := db.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	repo := store.Repository
	checks := map[string]handlers.Check{store.Driver: store.Ping}

	// --- Redis-backed features ---
	var (
		rdb    *goredis.Client
		events ports.AccountEventSink
		disp   *queue.Dispatcher
	)
	if cfg.NeedsRedis() {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if cfg.Cache.Enabled {
		repo = redis.NewCachedAccountRepository(repo, redis.NewAccountCache(rdb, cfg.Cache.TTL, log))
		log.Info().Dur("ttl", cfg.Cache.TTL).Msg("account cache enabled")
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if cfg.Events.Enabled {
		disp = queue.NewDispatcher(cfg.Events.Workers, redis.NewStreamPublisher(rdb, cfg.Events.Stream), log)
		disp.Start(workerCtx)
		events = disp
		log.Info().Str("stream", cfg.Events.Stream).Int("workers", cfg.Events.Workers).Msg("event publishing enabled")
	}

	// --- HTTP ---
	svc := service.NewAccountService(repo, events, log)
	e := api.NewRouter(api.RouterConfig{
		Service:    svc,
		Checks:     checks,
		JWTSecret:  cfg.Auth.Secret,
		WriteRoles: cfg.Auth.WriteRoles,
		Logger:     log,
		RequestLog: true,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", store.Driver).Bool("auth", cfg.AuthEnabled()).Msg("accounts service starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if disp != nil {
		stopWorkers()
		disp.Wait()
	}
	log.Info().Msg("accounts service stopped")
	return nil
}
