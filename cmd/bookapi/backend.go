package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bookshelf/book-api/internal/api/handler"
	"github.com/bookshelf/book-api/internal/core/ports"
	"github.com/bookshelf/book-api/internal/infrastructure/db/mongo"
	"github.com/bookshelf/book-api/internal/infrastructure/db/postgres"
	redisdb "github.com/bookshelf/book-api/internal/infrastructure/db/redis"
	"github.com/bookshelf/book-api/internal/pkg/config"
)

// userStore is a persistent user repository that also serves credentials.
type userStore interface {
	ports.UserRepository
	ports.CredentialProvider
}

// backend bundles the repositories selected by STORE_DRIVER and the optional
// Redis credential cache.
type backend struct {
	books       ports.BookRepository
	users       userStore
	credentials ports.CredentialProvider
	cache       ports.CredentialCache
	checks      map[string]handler.Check
	closers     []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	b := &backend{checks: map[string]handler.Check{}}

	var err error
	switch cfg.StoreDriver {
	case config.DriverMongo:
		err = b.openMongo(ctx, cfg, log)
	default:
		err = b.openPostgres(ctx, cfg, log, cfg.Postgres.MigrateOnStart)
	}
	if err != nil {
		b.Close()
		return nil, err
	}

	b.credentials = b.users
	if cfg.Redis.CacheEnabled {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, rdb.Close)
		b.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		cached := redisdb.NewCachedCredentials(rdb, b.users, cfg.Redis.CacheTTL, log.With().Str("component", "credential_cache").Logger())
		b.credentials = cached
		b.cache = cached
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.CacheTTL).Msg("credential cache enabled")
	}

	return b, nil
}

func (b *backend) openPostgres(ctx context.Context, cfg *config.Config, log zerolog.Logger, runMigrations bool) error {
	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	b.closers = append(b.closers, db.Close)
	b.checks["postgres"] = db.PingContext

	if runMigrations {
		version, err := postgres.Migrate(db.DB)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Uint("version", version).Msg("schema up to date")
	}

	b.books = postgres.NewBookRepository(db)
	b.users = postgres.NewUserRepository(db)
	log.Info().Msg("connected to postgres")
	return nil
}

func (b *backend) openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	b.closers = append(b.closers, func() error { return client.Disconnect(context.Background()) })
	b.checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}

	b.books = mongo.NewBookRepository(db)
	b.users = mongo.NewUserRepository(db)
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	return nil
}
