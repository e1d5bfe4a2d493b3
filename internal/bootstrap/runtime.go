// Package bootstrap wires the long-lived runtime dependencies shared by the
// server and the command-line tools.
package bootstrap

import (
	"context"
	"fmt"

	"blogicum/internal/config"
	"blogicum/internal/database"
	"blogicum/internal/media"
	"blogicum/internal/middleware"
	"blogicum/internal/seed"
	"blogicum/internal/session"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedFixtures loads the fixture categories and locations.
	SeedFixtures bool
}

// Runtime holds the connections a process needs.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Media media.Store
}

// InitRuntime connects to the database, Redis and the media store.
// Redis is optional: when it cannot be reached Redis is nil and token
// revocation and per-route rate limits are disabled.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb, err := session.Connect(ctx, cfg.RedisURL)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "redis unavailable, continuing without it", "error", err)
		rdb = nil
	}

	store, err := media.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}

	if opts.SeedFixtures {
		if err := seed.Fixtures(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to seed fixtures: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: rdb, Media: store}, nil
}

// Close releases the database and Redis connections.
func (r *Runtime) Close() error {
	var firstErr error
	if sqlDB, err := r.DB.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			firstErr = cerr
		}
	}
	if r.Redis != nil {
		if rerr := r.Redis.Close(); rerr != nil && firstErr == nil {
			firstErr = rerr
		}
	}
	return firstErr
}
