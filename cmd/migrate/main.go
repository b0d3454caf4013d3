package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/proyectoveris/clinic-api/internal/infrastructure/db/postgres"
	"github.com/proyectoveris/clinic-api/internal/pkg/config"
	"github.com/proyectoveris/clinic-api/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	cfg, err := config.LoadMigrate(context.Background(), envconfig.OsLookuper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "clinic-migrate",
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL, MaxConns: 2})
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		os.Exit(1)
	}
	defer pool.Close()

	runner, err := postgres.NewMigrator(pool, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to configure migration runner")
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = runner.Up(ctx)
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target)
	default:
		log.Error().Str("command", *command).Msg("unsupported command")
		os.Exit(1)
	}
	if err != nil {
		log.Error().Err(err).Str("command", *command).Msg("migration command failed")
		os.Exit(1)
	}

	log.Info().Str("command", *command).Msg("migration command completed")
}
