package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on every start; each statement is idempotent.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title VARCHAR(100) NOT NULL,
		slug VARCHAR(255) NOT NULL,
		description VARCHAR(1000) NOT NULL,
		overview VARCHAR(500) NOT NULL,
		image TEXT NOT NULL,
		venue TEXT NOT NULL,
		location TEXT NOT NULL,
		date DATE NOT NULL,
		time VARCHAR(5) NOT NULL,
		mode VARCHAR(16) NOT NULL DEFAULT 'online',
		audience TEXT NOT NULL,
		organizer TEXT NOT NULL,
		tags TEXT[] NOT NULL DEFAULT '{}',
		agenda TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT events_mode_check CHECK (mode IN ('online', 'offline', 'hybrid'))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_event_slug ON events (slug)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_events_tags ON events USING GIN (tags)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event_id UUID NOT NULL,
		user_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_event_user ON bookings (event_id, user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_event_id ON bookings (event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_event_created ON bookings (event_id, created_at DESC)`,
}

// Migrate creates the events and bookings tables and their indexes if missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
