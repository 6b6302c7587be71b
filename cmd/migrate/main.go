package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Rrens/stackbot/internal/config"
	"github.com/Rrens/stackbot/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log.Info().
		Str("host", cfg.Postgres.Host).
		Int("port", cfg.Postgres.Port).
		Str("source", cfg.Postgres.MigrationsURL).
		Msg("Running migrations")

	switch *direction {
	case "up":
		err = postgres.RunMigrations(cfg.Postgres.DSN(), cfg.Postgres.MigrationsURL)
	case "down":
		err = postgres.RollbackMigrations(cfg.Postgres.DSN(), cfg.Postgres.MigrationsURL)
	default:
		err = fmt.Errorf("unknown direction %q", *direction)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
