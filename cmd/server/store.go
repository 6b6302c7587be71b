package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/stackbot/internal/api/handler"
	"github.com/Rrens/stackbot/internal/config"
	"github.com/Rrens/stackbot/internal/domain"
	"github.com/Rrens/stackbot/internal/repository/memory"
	"github.com/Rrens/stackbot/internal/repository/mongo"
	"github.com/Rrens/stackbot/internal/repository/postgres"
	"github.com/rs/zerolog/log"
)

// store bundles the repositories of the configured driver
type store struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	pingers       []handler.Pinger
	close         func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		db, err := mongo.NewDB(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to ensure indexes: %w", err)
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("Connected to MongoDB")

		return &store{
			conversations: mongo.NewConversationRepository(db),
			messages:      mongo.NewMessageRepository(db),
			pingers:       []handler.Pinger{db},
			close: func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := db.Close(closeCtx); err != nil {
					log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
				}
			},
		}, nil

	case config.DriverPostgres:
		if err := postgres.RunMigrations(cfg.Postgres.DSN(), cfg.Postgres.MigrationsURL); err != nil {
			return nil, err
		}
		db, err := postgres.NewDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		log.Info().Str("host", cfg.Postgres.Host).Str("database", cfg.Postgres.Database).Msg("Connected to PostgreSQL")

		return &store{
			conversations: postgres.NewConversationRepository(db),
			messages:      postgres.NewMessageRepository(db),
			pingers:       []handler.Pinger{db},
			close:         db.Close,
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return &store{
			conversations: memory.NewConversationRepository(),
			messages:      memory.NewMessageRepository(),
			close:         func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
