// Package postgres opens the identity database and applies its schema
// (identities and the audit trail).
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"territorial/internal/platform/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS identities (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_events (
	id              UUID PRIMARY KEY,
	action          TEXT NOT NULL,
	actor_id        TEXT NOT NULL DEFAULT '',
	subject_id      TEXT NOT NULL,
	congregation_id TEXT NOT NULL DEFAULT '',
	request_id      TEXT NOT NULL DEFAULT '',
	at              TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS audit_events_subject_at ON audit_events (subject_id, at DESC);
`

// Open connects and pings the database.
func Open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
