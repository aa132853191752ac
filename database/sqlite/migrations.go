package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/stowry"
)

func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Migrate creates the metadata table and its indexes if they are missing.
func Migrate(ctx context.Context, db *sql.DB, tables stowry.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	table := quoteIdentifier(tables.MetaData)

	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			content_type TEXT NOT NULL,
			etag TEXT NOT NULL,
			file_size_bytes INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, table)

	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("migrate: create table: %w", err)
	}

	// The UNIQUE constraint on path already backs keyset pagination; an
	// updated_at index keeps recency queries cheap.
	indexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (updated_at)`,
		quoteIdentifier(fmt.Sprintf("idx_%s_updated_at", tables.MetaData)), table)

	if _, err := db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("migrate: create index: %w", err)
	}

	return nil
}

// DropTables removes everything Migrate created. Test helper.
func DropTables(ctx context.Context, db *sql.DB, tables stowry.Tables) error {
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tables.MetaData))
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
