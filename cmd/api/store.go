package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/proyectoveris/clinic-api/internal/core/ports"
	"github.com/proyectoveris/clinic-api/internal/infrastructure/db/memory"
	"github.com/proyectoveris/clinic-api/internal/infrastructure/db/mongo"
	"github.com/proyectoveris/clinic-api/internal/infrastructure/db/postgres"
	"github.com/proyectoveris/clinic-api/internal/infrastructure/http/handlers"
	"github.com/proyectoveris/clinic-api/internal/pkg/config"
)

// store bundles the repositories of the configured driver.
type store struct {
	users       ports.UserRepository
	specialties ports.SpecialtyRepository
	pinger      handlers.Pinger
	close       func()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.StoreDriverMongo:
		return openMongo(ctx, cfg, log)
	case config.StoreDriverMemory:
		log.Warn().Msg("using the in-memory store, data is lost on restart")
		s := memory.NewStore()
		return &store{users: s, specialties: s.Specialties(), pinger: s, close: func() {}}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:      cfg.Postgres.URL,
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Store.MigrateOnStart {
		migrator, err := postgres.NewMigrator(pool, log)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := migrator.Up(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	users := postgres.NewUserRepository(pool)
	log.Info().Msg("connected to postgres")
	return &store{
		users:       users,
		specialties: postgres.NewSpecialtyRepository(pool),
		pinger:      users,
		close:       pool.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "clinic-api",
	})
	if err != nil {
		return nil, err
	}
	disconnect := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}

	if err := mongo.EnsureSchema(ctx, db); err != nil {
		disconnect()
		return nil, err
	}

	users := mongo.NewUserRepository(db)
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")
	return &store{
		users:       users,
		specialties: mongo.NewSpecialtyRepository(db),
		pinger:      users,
		close:       disconnect,
	}, nil
}
