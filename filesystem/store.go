// Package filesystem stores object bytes on a local disk, sandboxed under
// an os.Root so no path can escape the data directory. Writes are atomic
// (temp file plus rename) and produce SHA-256 etags.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/sagarc03/stowry"
)

// Store implements stowry.FileStorage on a local directory.
type Store struct {
	root *os.Root
}

func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens the object at path. Returns stowry.ErrNotFound if it does not
// exist.
func (s *Store) Get(ctx context.Context, path string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, stowry.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write streams content to a temp file, fsyncs it, and renames it into
// place, hashing as it copies. A failed write leaves nothing behind at
// path.
func (s *Store) Write(ctx context.Context, path string, content io.Reader) (stowry.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return stowry.SaveResult{}, err
	}

	tmpName := fmt.Sprintf(".t%s", uuid.New().String())
	tmp, err := s.root.Create(tmpName)
	if err != nil {
		return stowry.SaveResult{}, fmt.Errorf("create temp file: %w", err)
	}

	committed := false
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil {
			slog.Warn("failed to close temp file", "err", closeErr)
		}
		if !committed {
			if rmErr := s.root.Remove(tmpName); rmErr != nil {
				slog.Warn("failed to remove temp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	written, err := io.Copy(io.MultiWriter(h, tmp), &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return stowry.SaveResult{}, fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Sync(); err != nil {
		return stowry.SaveResult{}, fmt.Errorf("sync %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return stowry.SaveResult{}, fmt.Errorf("create parent directories for %s: %w", path, err)
		}
	}

	if err := s.root.Rename(tmpName, path); err != nil {
		return stowry.SaveResult{}, fmt.Errorf("rename into %s: %w", path, err)
	}
	committed = true

	return stowry.SaveResult{
		BytesWritten: written,
		Etag:         hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Delete removes the object at path. Returns stowry.ErrNotFound if it does
// not exist.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.root.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stowry.ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// List walks the whole tree, hashing every file. Intended for metadata
// resync at startup, not for serving list requests.
func (s *Store) List(ctx context.Context) ([]stowry.ObjectEntry, error) {
	var entries []stowry.ObjectEntry

	err := fs.WalkDir(s.root.FS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		etag, err := s.hashFile(path)
		if err != nil {
			return err
		}

		entries = append(entries, stowry.ObjectEntry{
			Path:        path,
			Size:        info.Size(),
			ETag:        etag,
			ContentType: detectContentType(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return entries, nil
}

func (s *Store) hashFile(path string) (string, error) {
	f, err := s.root.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func detectContentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
