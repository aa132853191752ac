package stowry

import (
	"context"
	"io"
)

// MetaDataRepo manages object metadata persistence. Implementations must be
// safe for concurrent use and should respect context cancellation.
type MetaDataRepo interface {
	// Get retrieves metadata by path. Returns ErrNotFound if the path
	// does not exist.
	Get(ctx context.Context, path string) (MetaData, error)

	// Upsert creates or updates the metadata for entry.Path. The boolean
	// result is true when a new row was created.
	Upsert(ctx context.Context, entry ObjectEntry) (MetaData, bool, error)

	// Delete removes metadata by path. Returns ErrNotFound if the path
	// does not exist.
	Delete(ctx context.Context, path string) error

	// List returns a page of entries matching q, ordered by path.
	List(ctx context.Context, q ListQuery) (ListResult, error)
}

// FileStorage stores object bytes. Implementations can be a local
// filesystem, S3, or anything else that can stream content by path.
type FileStorage interface {
	// Get opens the object at path for reading. The caller closes the
	// returned reader. Returns ErrNotFound if the object does not exist.
	Get(ctx context.Context, path string) (io.ReadSeekCloser, error)

	// Write stores content at path, overwriting any existing object.
	// Writes should be atomic (temp file plus rename) and must report the
	// byte count and a content hash usable as an etag.
	Write(ctx context.Context, path string, content io.Reader) (SaveResult, error)

	// Delete removes the object at path. Returns ErrNotFound if the
	// object does not exist. Metadata is the caller's problem.
	Delete(ctx context.Context, path string) error

	// List walks the whole store and returns every object with its size,
	// etag, and detected content type. Used for metadata resync; expensive
	// on large stores.
	List(ctx context.Context) ([]ObjectEntry, error)
}
