// Package bootstrap opens the configured backends and assembles the respondent
// service shared by the API server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/respondent-registry-api/internal/config"
	"github.com/noah-isme/respondent-registry-api/internal/database"
	"github.com/noah-isme/respondent-registry-api/internal/repository"
	"github.com/noah-isme/respondent-registry-api/internal/service"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

// Resources owns every external connection. Close releases them in reverse order.
type Resources struct {
	Store   repository.RespondentRepository
	Redis   *redis.Client
	NATS    *nats.Conn
	closers []func(context.Context) error
}

// Open connects to the configured store, ensures its indexes, and connects the
// optional Redis and NATS backends.
func Open(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Resources, error) {
	res := &Resources{}

	store, err := res.openStore(ctx, cfg)
	if err != nil {
		_ = res.Close(ctx)
		return nil, err
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = res.Close(ctx)
		return nil, fmt.Errorf("failed to ensure respondent indexes: %w", err)
	}
	res.Store = store
	logger.Info().Str("driver", cfg.StoreDriver).Msg("respondent store ready")

	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			_ = res.Close(ctx)
			return nil, err
		}
		res.Redis = client
		res.closers = append(res.closers, func(context.Context) error { return client.Close() })
	}

	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			_ = res.Close(ctx)
			return nil, err
		}
		res.NATS = conn
		res.closers = append(res.closers, func(context.Context) error {
			conn.Close()
			return nil
		})
	}

	return res, nil
}

func (r *Resources) openStore(ctx context.Context, cfg config.Config) (repository.RespondentRepository, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := database.ConnectMongo(ctx, database.MongoConfig{
			URI:         cfg.MongoURI,
			Database:    cfg.MongoDatabase,
			Timeout:     cfg.MongoTimeout,
			MaxPoolSize: cfg.MongoMaxPoolSize,
			IdleTimeout: cfg.MongoIdleTimeout,
		})
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, client.Disconnect)
		collection := client.Database(cfg.MongoDatabase).Collection(repository.RespondentCollection)
		return repository.NewMongoRespondentRepository(collection, cfg.MongoTimeout), nil
	case config.StorePostgres:
		db, err := database.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		r.closeGorm(db)
		return repository.NewGormRespondentRepository(db), nil
	case config.StoreSQLite:
		db, err := database.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		r.closeGorm(db)
		return repository.NewGormRespondentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func (r *Resources) closeGorm(db *gorm.DB) {
	r.closers = append(r.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
}

// Close releases every connection, returning all close errors joined.
func (r *Resources) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Services assembles the change feed and respondent service over the opened resources.
func Services(res *Resources, cfg config.Config, logger zerolog.Logger) (service.RespondentService, service.ChangeFeed, error) {
	variant, err := validation.ParseVariant(cfg.SchemaVariant)
	if err != nil {
		return nil, nil, err
	}

	feed := service.NewChangeFeed(res.Redis, cfg.ChannelBase, res.NATS, logger)
	schema := validation.NewSchema(variant)
	respondents := service.NewRespondentService(res.Store, schema, res.Redis, cfg.ListCacheTTL, feed, logger)

	return respondents, feed, nil
}
