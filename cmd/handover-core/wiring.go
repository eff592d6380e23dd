package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/custodia-labs/handover-core/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/handover-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/handover-core/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/handover-core/internal/config"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
	"github.com/custodia-labs/handover-core/internal/logger"
)

const (
	schemaLock     = "schema"
	schemaLockTTL  = 2 * time.Minute
	schemaLockWait = time.Minute
)

// handoverStore is a HandoverStore that can be closed
type handoverStore interface {
	driven.HandoverStore
	Close() error
}

// loadConfig reads configuration and builds the logger it describes
func loadConfig(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// connectRedis returns nil when Redis is not configured
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*goredis.Client, error) {
	if !cfg.Enabled() {
		log.Info("redis not configured, result cache disabled")
		return nil, nil
	}
	client, err := redisadapter.Connect(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Info("redis connected")
	return client, nil
}

// openStore opens the configured handover store and applies its schema.
// With Redis available the schema is applied under a cluster-wide lock.
func openStore(ctx context.Context, cfg config.DatabaseConfig, lock driven.DistributedLock, log *zap.Logger) (handoverStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, postgres.Config{
			URL:             cfg.URL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}
		if err := initSchema(ctx, lock, db.InitSchema); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("postgres connected and schema initialized")
		return &postgresStore{HandoverStore: postgres.NewHandoverStore(db), db: db}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.URL)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite store opened", zap.String("path", cfg.URL))
		return store, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func initSchema(ctx context.Context, lock driven.DistributedLock, apply func(context.Context) error) error {
	if lock == nil {
		return apply(ctx)
	}
	err := redisadapter.WithLock(ctx, lock, schemaLock, schemaLockTTL, schemaLockWait, apply)
	if errors.Is(err, redisadapter.ErrLockTimeout) {
		return fmt.Errorf("another instance is still migrating: %w", err)
	}
	return err
}

// postgresStore closes the pool along with the store
type postgresStore struct {
	*postgres.HandoverStore
	db *postgres.DB
}

func (s *postgresStore) Close() error {
	return s.db.Close()
}
