// Package db selects and opens the account storage backend named by the
// configuration.
package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/msvcdojo/accounts-service/internal/core/ports"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/config"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/db/memory"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/db/mongo"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/db/postgres"
)

// Store is an opened backend. Close releases its connections.
type Store struct {
	Driver     string
	Repository ports.AccountRepository
	Ping       func(ctx context.Context) error
	Close      func(ctx context.Context)
}

func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverMongo:
		return openMongo(ctx, cfg, log)
	case config.DriverMemory:
		repo := memory.NewAccountRepository()
		log.Warn().Msg("using in-memory storage; accounts are lost on restart")
		return &Store{
			Driver:     config.DriverMemory,
			Repository: repo,
			Ping:       repo.Ping,
			Close:      func(context.Context) {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, cfg.Database.URL, log); err != nil {
			return nil, err
		}
	}

	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		TraceSQL: cfg.IsDevelopment(),
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int32("max_conns", pool.Config().MaxConns).Msg("connected to postgres")

	repo := postgres.NewAccountRepository(pool)
	return &Store{
		Driver:     config.DriverPostgres,
		Repository: repo,
		Ping:       repo.Ping,
		Close:      func(context.Context) { pool.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	database, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")

	repo := mongo.NewAccountRepository(database)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = database.Client().Disconnect(ctx)
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}

	return &Store{
		Driver:     config.DriverMongo,
		Repository: repo,
		Ping:       repo.Ping,
		Close: func(ctx context.Context) {
			if err := database.Client().Disconnect(ctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect failed")
			}
		},
	}, nil
}
