package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"blogicum/internal/config"
	"blogicum/internal/middleware"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// MaintenanceDSN is the URL of the server's "postgres" database, used to
// create the application database before it exists.
func MaintenanceDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     cfg.DBHost + ":" + cfg.DBPort,
		Path:     "/postgres",
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// EnsureDatabase creates cfg.DBName on the postgres server unless it exists.
// It reports whether the database was created.
func EnsureDatabase(ctx context.Context, cfg *config.Config) (bool, error) {
	if cfg.DBDriver != "" && cfg.DBDriver != "postgres" {
		return false, fmt.Errorf("create-db supports postgres only, got %q", cfg.DBDriver)
	}
	if cfg.DBName == "" {
		return false, errors.New("DB_NAME is empty")
	}

	sqlDB, err := sql.Open("pgx", MaintenanceDSN(cfg))
	if err != nil {
		return false, fmt.Errorf("open maintenance db: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	return createDatabase(ctx, sqlDB, cfg.DBName)
}

func createDatabase(ctx context.Context, sqlDB *sql.DB, name string) (bool, error) {
	var exists bool
	if err := sqlDB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check database %s: %w", name, err)
	}
	if exists {
		return false, nil
	}

	if _, err := sqlDB.ExecContext(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return false, fmt.Errorf("create database %s: %w", name, err)
	}
	middleware.Logger.InfoContext(ctx, "database created", "name", name)
	return true, nil
}
