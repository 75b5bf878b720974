package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Connect opens a pgx connection pool using DATABASE_URL.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connected successfully using PGX")
	return pool, nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			user_id   UUID NOT NULL REFERENCES users(id),
			friend_id UUID NOT NULL REFERENCES users(id),
			added_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, friend_id)
		)`,
		`CREATE TABLE IF NOT EXISTS friend_requests (
			id          UUID PRIMARY KEY,
			receiver_id UUID NOT NULL REFERENCES users(id),
			sender_id   UUID NOT NULL REFERENCES users(id),
			status      TEXT NOT NULL DEFAULT 'pending',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_receiver
			ON friend_requests (receiver_id) WHERE status = 'pending'`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq           BIGSERIAL PRIMARY KEY,
			id            UUID NOT NULL UNIQUE,
			sender_id     UUID NOT NULL REFERENCES users(id),
			sender_name   TEXT NOT NULL,
			receiver_id   UUID NOT NULL REFERENCES users(id),
			receiver_name TEXT NOT NULL,
			content       TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair
			ON messages (sender_id, receiver_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}

	logrus.Info("Database schema is up to date")
	return nil
}
