package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the users table on startup if it is missing. One table
// is all this service persists; the only index beyond the primary key is the
// unique email constraint.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id            TEXT PRIMARY KEY,
            fullname      TEXT NOT NULL,
            email         TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            phone_number  TEXT,
            is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
            otp           TEXT,
            otp_expiry    TIMESTAMPTZ,
            created_at    TIMESTAMPTZ NOT NULL,
            updated_at    TIMESTAMPTZ NOT NULL,
            CHECK ((otp IS NULL) = (otp_expiry IS NULL))
        )
    `)

	return err
}
