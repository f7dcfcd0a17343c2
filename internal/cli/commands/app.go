package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	// SQL drivers selectable through database.driver
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/conduit-lang/filterkit/internal/cli/config"
	"github.com/conduit-lang/filterkit/internal/cli/ui"
	"github.com/conduit-lang/filterkit/internal/engine"
	"github.com/conduit-lang/filterkit/internal/logging"
	"github.com/conduit-lang/filterkit/internal/orm/schema"
	"github.com/conduit-lang/filterkit/internal/web/cache"
)

const connectTimeout = 10 * time.Second

// app is the loaded configuration of one command invocation
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	engine  *engine.Engine
	noColor bool
}

// load reads the config, builds the logger and registers every filter.
// Failures are written to stderr in the ui format.
func (o *Options) load(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, o.report(cmd, err, ui.ConfigError(err.Error(), o.NoColor))
	}

	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, o.report(cmd, err, ui.ConfigError(err.Error(), o.NoColor))
	}

	e, err := engine.New(cfg, logger)
	if err != nil {
		return nil, o.report(cmd, err, ui.ConfigError(err.Error(), o.NoColor))
	}

	return &app{cfg: cfg, logger: logger, engine: e, noColor: o.NoColor}, nil
}

func (o *Options) report(cmd *cobra.Command, err error, message string) error {
	fmt.Fprint(cmd.ErrOrStderr(), message)
	return &reportedError{err: err}
}

// resourceError prints unknown resources with suggestions and passes other
// errors through
func (a *app) resourceError(cmd *cobra.Command, resource string, err error) error {
	if !errors.Is(err, schema.ErrResourceNotFound) {
		return err
	}
	fmt.Fprint(cmd.ErrOrStderr(), ui.ResourceNotFoundError(resource, a.engine.Resources(), a.noColor))
	return &reportedError{err: err}
}

func (a *app) close() {
	a.logger.Sync()
}

// openSQL opens and pings the configured SQL database
func openSQL(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database.url is not set")
	}

	db, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	return db, nil
}

// openMongo connects to the configured MongoDB deployment
func openMongo(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongodb: %w", err)
	}

	return client, nil
}

// openCache returns the response cache selected by cfg, or nil when caching
// is disabled
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	base := cache.Config{DefaultTTL: cfg.TTL, Prefix: cfg.Prefix, MaxEntries: cfg.MaxEntries}

	switch cfg.Driver {
	case config.CacheMemory:
		return cache.NewMemoryCache(base), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Cache:    base,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, nil
	}
}
