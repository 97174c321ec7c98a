package database

import (
	"context"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id          TEXT PRIMARY KEY,
		full_name   TEXT,
		email       TEXT NOT NULL,
		scout_tier  TEXT NOT NULL DEFAULT 'New Scout',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id                  UUID PRIMARY KEY,
		user_id             TEXT NOT NULL,
		photo_url           TEXT NOT NULL,
		address             TEXT,
		latitude            DOUBLE PRECISION,
		longitude           DOUBLE PRECISION,
		cell_token          TEXT,
		contractor_signals  TEXT[] NOT NULL DEFAULT '{}',
		realestate_signals  TEXT[] NOT NULL DEFAULT '{}',
		occupancy_status    TEXT,
		notes               TEXT,
		status              TEXT NOT NULL DEFAULT 'pending',
		actual_earnings     NUMERIC(12,2),
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS submissions_user_created_idx ON submissions (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS earnings (
		id             UUID PRIMARY KEY,
		user_id        TEXT NOT NULL,
		amount         NUMERIC(12,2) NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending',
		submission_id  UUID REFERENCES submissions (id),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS earnings_user_created_idx ON earnings (user_id, created_at DESC)`,
}

// Migrate creates the profiles, submissions and earnings tables when missing.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
