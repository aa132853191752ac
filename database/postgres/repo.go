// Package postgres implements the metadata repo on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/stowry"
	"github.com/sagarc03/stowry/database/internal"
)

// Repo implements stowry.MetaDataRepo.
type Repo struct {
	pool  *pgxpool.Pool
	table string
}

func NewRepo(pool *pgxpool.Pool, tables stowry.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	return &Repo{pool: pool, table: tables.MetaData}, nil
}

// Ping verifies database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Get(ctx context.Context, path string) (stowry.MetaData, error) {
	query := fmt.Sprintf(`
		SELECT id, path, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s WHERE path = $1`, r.table)

	var m stowry.MetaData
	err := r.pool.QueryRow(ctx, query, path).Scan(
		&m.ID, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stowry.MetaData{}, stowry.ErrNotFound
		}
		return stowry.MetaData{}, fmt.Errorf("get: %w", err)
	}
	return m, nil
}

func (r *Repo) Upsert(ctx context.Context, entry stowry.ObjectEntry) (stowry.MetaData, bool, error) {
	// xmax = 0 distinguishes a fresh insert from a conflict update.
	query := fmt.Sprintf(`
		INSERT INTO %s (path, content_type, etag, file_size_bytes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO UPDATE SET
			content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			file_size_bytes = EXCLUDED.file_size_bytes,
			updated_at = NOW()
		RETURNING id, path, content_type, etag, file_size_bytes, created_at, updated_at,
			(xmax = 0) AS inserted`, r.table)

	var m stowry.MetaData
	var inserted bool

	err := r.pool.QueryRow(ctx, query, entry.Path, entry.ContentType, entry.ETag, entry.Size).Scan(
		&m.ID, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt, &inserted,
	)
	if err != nil {
		return stowry.MetaData{}, false, fmt.Errorf("upsert: %w", err)
	}
	return m, inserted, nil
}

func (r *Repo) Delete(ctx context.Context, path string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE path = $1`, r.table)

	result, err := r.pool.Exec(ctx, query, path)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if result.RowsAffected() == 0 {
		return stowry.ErrNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context, q stowry.ListQuery) (stowry.ListResult, error) {
	after, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return stowry.ListResult{}, fmt.Errorf("list: %w: %w", stowry.ErrInvalidInput, err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT id, path, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE path > $1 AND starts_with(path, $2)
		ORDER BY path
		LIMIT $3`, r.table)

	rows, err := r.pool.Query(ctx, query, after, q.PathPrefix, limit+1)
	if err != nil {
		return stowry.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var items []stowry.MetaData
	for rows.Next() {
		var m stowry.MetaData
		err := rows.Scan(&m.ID, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return stowry.ListResult{}, fmt.Errorf("list: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return stowry.ListResult{}, fmt.Errorf("list: %w", err)
	}

	result := stowry.ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = internal.EncodeCursor(result.Items[limit-1].Path)
	}
	return result, nil
}
