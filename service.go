package stowry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"
)

const defaultCleanupTimeout = 30 * time.Second

// Service coordinates metadata and file storage so the two never drift:
// a create that fails halfway removes the bytes it wrote, and reads only
// ever serve objects the metadata repo knows about.
type Service struct {
	repo           MetaDataRepo
	storage        FileStorage
	mode           ServerMode
	cleanupTimeout time.Duration
}

// ServiceConfig holds options for NewService.
type ServiceConfig struct {
	Mode ServerMode
	// CleanupTimeout bounds the rollback delete after a failed create.
	// Defaults to 30s.
	CleanupTimeout time.Duration
}

func NewService(repo MetaDataRepo, storage FileStorage, cfg ServiceConfig) (*Service, error) {
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("new service: invalid mode: %s", cfg.Mode)
	}

	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = defaultCleanupTimeout
	}

	return &Service{
		repo:           repo,
		storage:        storage,
		mode:           cfg.Mode,
		cleanupTimeout: cleanupTimeout,
	}, nil
}

// Populate syncs metadata from the physical store, upserting an entry for
// every file found. Meant for first boot over an existing data directory or
// for recovery after metadata loss. Not atomic; stops at the first error.
func (s *Service) Populate(ctx context.Context) error {
	files, err := s.storage.List(ctx)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	for _, file := range files {
		if _, _, err := s.repo.Upsert(ctx, file); err != nil {
			return fmt.Errorf("populate %q: %w", file.Path, err)
		}
	}

	return nil
}

// Create validates obj, streams content into storage, and records the
// metadata. If the metadata write fails the stored file is deleted again,
// using a background context so rollback survives caller cancellation.
func (s *Service) Create(ctx context.Context, obj CreateObject, content io.Reader) (MetaData, error) {
	if err := ctx.Err(); err != nil {
		return MetaData{}, fmt.Errorf("create object: %w", err)
	}

	if obj.Path == "" {
		return MetaData{}, fmt.Errorf("create object: %w: path cannot be empty", ErrInvalidInput)
	}
	if obj.ContentType == "" {
		return MetaData{}, fmt.Errorf("create object: %w: content type cannot be empty", ErrInvalidInput)
	}
	if !IsValidPath(obj.Path) {
		return MetaData{}, fmt.Errorf("create object %s: %w", obj.Path, ErrInvalidInput)
	}

	saveResult, err := s.storage.Write(ctx, obj.Path, content)
	if err != nil {
		return MetaData{}, fmt.Errorf("create object %s: write failed: %w", obj.Path, err)
	}

	entry := ObjectEntry{
		Path:        obj.Path,
		Size:        saveResult.BytesWritten,
		ETag:        saveResult.Etag,
		ContentType: obj.ContentType,
	}

	metaData, _, err := s.repo.Upsert(ctx, entry)
	if err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
		defer cancel()

		if delErr := s.storage.Delete(cleanupCtx, obj.Path); delErr != nil {
			return MetaData{}, fmt.Errorf("create object %s: metadata upsert failed (%w) and cleanup failed: %w", obj.Path, err, delErr)
		}
		return MetaData{}, fmt.Errorf("create object %s: metadata upsert failed: %w", obj.Path, err)
	}

	return metaData, nil
}

// Get returns the metadata and content for p. The empty path and misses
// resolve according to the server mode: store mode returns ErrNotFound,
// static mode falls back to a directory index.html, spa mode falls back to
// the root index.html.
func (s *Service) Get(ctx context.Context, p string) (MetaData, io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return MetaData{}, nil, fmt.Errorf("get object: %w", err)
	}

	if p == "" {
		if s.mode == ModeStore {
			return MetaData{}, nil, fmt.Errorf("get object: %w", ErrNotFound)
		}
		p = "index.html"
	}

	m, err := s.repo.Get(ctx, p)

	if errors.Is(err, ErrNotFound) {
		switch s.mode {
		case ModeStatic:
			m, err = s.repo.Get(ctx, path.Join(p, "index.html"))
		case ModeSPA:
			m, err = s.repo.Get(ctx, "index.html")
		}
	}

	if err != nil {
		return MetaData{}, nil, fmt.Errorf("get object: %w", err)
	}

	f, err := s.storage.Get(ctx, m.Path)
	if err != nil {
		return MetaData{}, nil, fmt.Errorf("get object: %w", err)
	}

	return m, f, nil
}

// Delete removes an object's metadata and bytes. The metadata row goes
// first so readers stop seeing the object immediately; a storage miss after
// that is ignored.
func (s *Service) Delete(ctx context.Context, p string) error {
	if p == "" {
		return fmt.Errorf("delete object: %w: path cannot be empty", ErrInvalidInput)
	}

	if err := s.repo.Delete(ctx, p); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	if err := s.storage.Delete(ctx, p); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete object %s: remove file: %w", p, err)
	}

	return nil
}

// List returns a page of object metadata.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	result, err := s.repo.List(ctx, q)
	if err != nil {
		return ListResult{}, fmt.Errorf("list objects: %w", err)
	}
	return result, nil
}
