// Package sqlite implements the metadata repo on database/sql with the
// modernc.org/sqlite driver. Timestamps are stored as RFC3339Nano text and
// ids as uuid text, which keeps the schema portable and inspectable.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/stowry"
	"github.com/sagarc03/stowry/database/internal"
)

// Repo implements stowry.MetaDataRepo.
type Repo struct {
	db    *sql.DB
	table string
}

func NewRepo(db *sql.DB, tables stowry.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}
	return &Repo{db: db, table: tables.MetaData}, nil
}

func (r *Repo) Get(ctx context.Context, path string) (stowry.MetaData, error) {
	query := fmt.Sprintf( //nolint:gosec // table name validated at construction
		`SELECT id, path, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s WHERE path = ?`, r.table)

	m, err := scanRow(r.db.QueryRowContext(ctx, query, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stowry.MetaData{}, stowry.ErrNotFound
		}
		return stowry.MetaData{}, fmt.Errorf("get: %w", err)
	}
	return m, nil
}

func (r *Repo) Upsert(ctx context.Context, entry stowry.ObjectEntry) (stowry.MetaData, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	id := uuid.New()

	// ON CONFLICT keeps id and created_at from the original row, so an
	// overwrite looks like an update, not a new object.
	query := fmt.Sprintf( //nolint:gosec // table name validated at construction
		`INSERT INTO %s (id, path, content_type, etag, file_size_bytes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			content_type = excluded.content_type,
			etag = excluded.etag,
			file_size_bytes = excluded.file_size_bytes,
			updated_at = excluded.updated_at
		RETURNING id, path, content_type, etag, file_size_bytes, created_at, updated_at`, r.table)

	m, err := scanRow(r.db.QueryRowContext(ctx, query,
		id.String(), entry.Path, entry.ContentType, entry.ETag, entry.Size, now, now))
	if err != nil {
		return stowry.MetaData{}, false, fmt.Errorf("upsert: %w", err)
	}

	inserted := m.ID == id
	return m, inserted, nil
}

func (r *Repo) Delete(ctx context.Context, path string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE path = ?`, r.table) //nolint:gosec // table name validated at construction

	result, err := r.db.ExecContext(ctx, query, path)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if affected == 0 {
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

	// Fetch one extra row to know whether another page exists.
	query := fmt.Sprintf( //nolint:gosec // table name validated at construction
		`SELECT id, path, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE path > ? AND path LIKE ? ESCAPE '\'
		ORDER BY path
		LIMIT ?`, r.table)

	rows, err := r.db.QueryContext(ctx, query, after, likePrefix(q.PathPrefix), limit+1)
	if err != nil {
		return stowry.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []stowry.MetaData
	for rows.Next() {
		m, err := scanRow(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (stowry.MetaData, error) {
	var m stowry.MetaData
	var id, createdAt, updatedAt string

	err := row.Scan(&id, &m.Path, &m.ContentType, &m.Etag, &m.FileSizeBytes, &createdAt, &updatedAt)
	if err != nil {
		return stowry.MetaData{}, err
	}

	if m.ID, err = uuid.Parse(id); err != nil {
		return stowry.MetaData{}, fmt.Errorf("parse id: %w", err)
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return stowry.MetaData{}, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return stowry.MetaData{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return m, nil
}

// likePrefix turns a raw path prefix into a LIKE pattern, escaping the
// wildcard characters so user input cannot widen the match.
func likePrefix(prefix string) string {
	var b []byte
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '%', '_', '\\':
			b = append(b, '\\')
		}
		b = append(b, prefix[i])
	}
	return string(b) + "%"
}
