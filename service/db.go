package service

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS invites (
	id         TEXT PRIMARY KEY,
	code       TEXT UNIQUE NOT NULL,
	email      TEXT NOT NULL,
	inviter    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS invites_pending_email
	ON invites (email) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS users (
	external_id TEXT PRIMARY KEY,
	email       TEXT UNIQUE NOT NULL,
	role        TEXT NOT NULL DEFAULT 'user',
	status      TEXT NOT NULL DEFAULT 'active'
);
`

// OpenDatabase connects to Postgres and verifies the connection
func OpenDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the invite and user tables if they don't exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
