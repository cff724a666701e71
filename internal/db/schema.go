package db

import (
	"context"
	"fmt"
)

// Schema holds the tables used by the account service and the postgres
// route library. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS route_records (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		origin TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL DEFAULT '',
		distance_text TEXT NOT NULL DEFAULT '',
		duration_text TEXT NOT NULL DEFAULT '',
		transport_mode TEXT NOT NULL,
		is_public BOOLEAN NOT NULL DEFAULT false,
		review JSONB,
		path JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS route_records_owner_idx ON route_records (owner_id, created_at DESC)`,
}

func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range Schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
