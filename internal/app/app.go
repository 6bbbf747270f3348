// Package app opens the backends named by the configuration and assembles
// the services shared by the server and the CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ahsanfayaz52/notespark/internal/auth"
	"github.com/ahsanfayaz52/notespark/internal/config"
	"github.com/ahsanfayaz52/notespark/internal/db"
	"github.com/ahsanfayaz52/notespark/internal/identity"
	"github.com/ahsanfayaz52/notespark/internal/store"
)

type App struct {
	Config   *config.Config
	DB       *sql.DB
	Store    *store.Live
	Accounts *identity.Accounts
	JWT      *auth.JWTService

	mongo *mongo.Database
	redis *redis.Client
}

// Open connects to SQL (always, for users), to Mongo when it holds the notes,
// and to Redis when change signals cross processes. Without Redis, writes
// from other processes are found by polling.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg}

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	a.DB = conn
	log.Info().Str("driver", cfg.DBDriver).Msg("connected to SQL database")

	var backend store.Backend = store.NewSQLBackend(conn)
	if cfg.StoreBackend == "mongo" {
		database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.mongo = database
		mb := store.NewMongoBackend(database)
		if err := mb.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure indexes")
		}
		backend = mb
		log.Info().Str("database", cfg.MongoDB).Msg("connected to MongoDB")
	}

	var bus store.Bus
	if cfg.RedisURL != "" {
		client, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.redis = client
		bus = store.NewRedisBus(client)
		log.Info().Msg("change signals over redis")
	} else {
		// both backends implement store.Versioner
		bus = store.NewPollBus(store.NewHub(), backend.(store.Versioner), cfg.PollInterval,
			log.With().Str("component", "poll").Logger())
		log.Info().Dur("interval", cfg.PollInterval).Msg("polling for changes from other processes")
	}

	a.Store = store.NewLive(backend, bus, store.WithLogger(log.With().Str("component", "store").Logger()))
	a.Accounts = identity.NewAccounts(identity.NewSQLDirectory(conn))
	a.JWT = auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	return a, nil
}

func (a *App) Close(ctx context.Context) error {
	var first error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && first == nil {
			first = fmt.Errorf("close redis: %w", err)
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Client().Disconnect(ctx); err != nil && first == nil {
			first = fmt.Errorf("disconnect mongo: %w", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && first == nil {
			first = fmt.Errorf("close database: %w", err)
		}
	}
	return first
}
