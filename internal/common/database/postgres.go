// Package database opens the PostgreSQL and Redis connections and keeps the
// submissions schema in place.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"scoutly/internal/common/config"
	"scoutly/internal/common/logger"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens the pool without touching the network.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// ConnectPostgres opens the pool and waits until the server answers.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig, policy RetryPolicy, log logger.Logger) (*PostgresClient, error) {
	pg, err := NewPostgres(cfg)
	if err != nil {
		return nil, err
	}
	if err := Retry(ctx, policy, log, "postgres connection", pg.Ping); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
