package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/stowry"
)

// Migrate creates the metadata table if it is missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables stowry.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	table := pgx.Identifier{tables.MetaData}.Sanitize()

	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID NOT NULL PRIMARY KEY DEFAULT gen_random_uuid(),
			path TEXT NOT NULL UNIQUE,
			content_type TEXT NOT NULL,
			etag TEXT NOT NULL,
			file_size_bytes BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, table)

	if _, err := pool.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("migrate: create table: %w", err)
	}

	return nil
}

// DropTables removes everything Migrate created. Test helper.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables stowry.Tables) error {
	table := pgx.Identifier{tables.MetaData}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
