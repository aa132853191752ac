// Package database selects and wires a metadata backend from
// configuration. SQLite covers single-node deployments; postgres covers
// anything shared.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/stowry"
	"github.com/sagarc03/stowry/database/postgres"
	"github.com/sagarc03/stowry/database/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds the connection settings for the metadata backend.
type Config struct {
	// Type is "sqlite" or "postgres".
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the driver connection string.
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables carries the configurable table names.
	Tables stowry.Tables `mapstructure:"tables"`
}

// Connect opens the configured backend, migrates and validates its schema,
// and returns the repo plus a close function.
func Connect(ctx context.Context, cfg Config) (stowry.MetaDataRepo, func(), error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return connectSQLite(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return connectPostgres(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func connectSQLite(ctx context.Context, dsn string, tables stowry.Tables) (stowry.MetaDataRepo, func(), error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	cleanup := func() { _ = db.Close() }

	if err := db.PingContext(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := sqlite.Migrate(ctx, db, tables); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	repo, err := sqlite.NewRepo(db, tables)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("sqlite repo: %w", err)
	}

	return repo, cleanup, nil
}

func connectPostgres(ctx context.Context, dsn string, tables stowry.Tables) (stowry.MetaDataRepo, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := postgres.Migrate(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	repo, err := postgres.NewRepo(pool, tables)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres repo: %w", err)
	}

	return repo, pool.Close, nil
}
