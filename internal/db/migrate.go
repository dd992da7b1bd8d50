package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// start_time and end_time hold the business wall clock without a zone.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS bookings (
		id           BIGSERIAL PRIMARY KEY,
		name         TEXT NOT NULL,
		phone        TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT '',
		service      TEXT NOT NULL,
		start_time   TIMESTAMP NOT NULL,
		end_time     TIMESTAMP NOT NULL,
		status       TEXT NOT NULL DEFAULT 'confirmed',
		cancel_token UUID NOT NULL UNIQUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (end_time > start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_confirmed_start_idx
		ON bookings (start_time) WHERE status = 'confirmed'`,
	`CREATE TABLE IF NOT EXISTS event_logs (
		id         BIGSERIAL PRIMARY KEY,
		event_type TEXT NOT NULL,
		booking_id BIGINT REFERENCES bookings (id) ON DELETE SET NULL,
		payload    JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables if they do not exist yet. It is safe to run on
// every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
