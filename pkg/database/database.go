package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Clients bundles the persistence connections with an explicit lifecycle:
// construct with NewClients, release with Close.
type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

func NewClients(dbURL, redisAddr string) (*Clients, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Clients{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (c *Clients) Close() error {
	if err := c.Redis.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	return c.DB.Close()
}

func (c *Clients) CreateProfileTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		avatar TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE REFERENCES users(id),
		company TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		githubusername TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		skills JSONB NOT NULL DEFAULT '[]',
		social JSONB NOT NULL DEFAULT '{}',
		experience JSONB NOT NULL DEFAULT '[]',
		education JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS profile_audit (
		id SERIAL PRIMARY KEY,
		event_type TEXT NOT NULL,
		user_id UUID NOT NULL,
		profile_id UUID,
		payload JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := c.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create profile tables: %w", err)
	}

	slog.Info("✅ Profile tables are ready!")
	return nil
}
