package core

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    password VARCHAR(255) NOT NULL,
    address TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS workers (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    password VARCHAR(255) NOT NULL,
    profession VARCHAR(255) NOT NULL DEFAULT '',
    hourly_charge NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (hourly_charge >= 0),
    city VARCHAR(255) NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS bookings (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    worker_id BIGINT NOT NULL REFERENCES workers(id),
    booking_date DATE NOT NULL,
    booking_time TIME NOT NULL,
    status VARCHAR(50) NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending', 'Accepted', 'Rejected'))
)`,
	`CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id)`,
	`CREATE INDEX IF NOT EXISTS bookings_worker_id_idx ON bookings (worker_id)`,
}

// EnsureSchema creates the users, workers and bookings tables when missing.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
