package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/accounts/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const (
	applicationName = "accounts"
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
	connectTimeout  = 30 * time.Second
)

// DB is the PostgreSQL pool shared by the pgx user store and migrations
type DB struct {
	Pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewConnection opens the pool and waits for PostgreSQL to answer. The database often
// starts alongside the API, so failed pings are retried with exponential backoff.
func NewConnection(cfg *config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	poolConfig, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("database not ready",
				slog.Int("attempt", attempt),
				slog.String("host", cfg.Host),
				slog.Any("error", err),
			)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database after %d attempts: %w", attempt, err)
	}

	logger.Info("database connection established",
		slog.String("driver", config.DriverPostgres),
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Name),
		slog.Int("max_conns", int(cfg.MaxConns)),
	)

	return &DB{Pool: pool, logger: logger}, nil
}

// newPoolConfig turns the database settings into a pgx pool config. Sessions run in UTC
// so date_created / date_updated round-trip unchanged.
func newPoolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("pgx backend does not support driver %q", cfg.Driver)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	params := poolConfig.ConnConfig.RuntimeParams
	params["application_name"] = applicationName
	params["timezone"] = "UTC"

	return poolConfig, nil
}

// NewFromPool wraps an existing pool, e.g. one created by a test container
func NewFromPool(pool *pgxpool.Pool, logger *slog.Logger) *DB {
	return &DB{Pool: pool, logger: logger}
}

func (db *DB) Close() {
	if db.logger != nil {
		db.logger.Info("closing database connection pool")
	}
	db.Pool.Close()
}

// HealthCheck pings with its own short deadline so /health answers quickly
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
