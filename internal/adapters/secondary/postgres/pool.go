package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novatech/repair-desk-backend/internal/config"
)

// NewPool creates a pgx connection pool from the database configuration and
// verifies connectivity with a ping.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// ConnectWithRetry attempts to connect to the database with a fixed delay
// between attempts. It returns an error only after every attempt has failed;
// the caller decides whether that means demo mode or a fatal exit.
func ConnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("no database url configured")
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		pool, err := NewPool(ctx, cfg)
		if err == nil {
			if attempt > 1 {
				logger.Info("database connection established after retries", "attempt", attempt)
			}
			return pool, nil
		}
		lastErr = err

		logger.Warn("database connection attempt failed",
			"attempt", attempt,
			"max_attempts", cfg.ConnectRetries,
			"retry_delay", cfg.ConnectRetryDelay.String(),
			"error", err,
		)

		if attempt < cfg.ConnectRetries {
			select {
			case <-time.After(cfg.ConnectRetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("database unreachable after %d attempts: %w", cfg.ConnectRetries, lastErr)
}

// RunMigrations applies all pending migrations from the configured path.
func RunMigrations(databaseURL, migrationsPath string, logger *slog.Logger) error {
	mig, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Warn("failed to close migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Warn("failed to close migration database", "error", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database migrations applied", "path", migrationsPath)
	return nil
}
