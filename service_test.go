package stowry_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/stowry"
)

type fakeRepo struct {
	entries   map[string]stowry.MetaData
	upsertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: make(map[string]stowry.MetaData)}
}

func (r *fakeRepo) Get(_ context.Context, path string) (stowry.MetaData, error) {
	m, ok := r.entries[path]
	if !ok {
		return stowry.MetaData{}, stowry.ErrNotFound
	}
	return m, nil
}

func (r *fakeRepo) Upsert(_ context.Context, entry stowry.ObjectEntry) (stowry.MetaData, bool, error) {
	if r.upsertErr != nil {
		return stowry.MetaData{}, false, r.upsertErr
	}

	m, exists := r.entries[entry.Path]
	if !exists {
		m = stowry.MetaData{ID: uuid.New(), Path: entry.Path, CreatedAt: time.Now()}
	}
	m.ContentType = entry.ContentType
	m.Etag = entry.ETag
	m.FileSizeBytes = entry.Size
	m.UpdatedAt = time.Now()
	r.entries[entry.Path] = m

	return m, !exists, nil
}

func (r *fakeRepo) Delete(_ context.Context, path string) error {
	if _, ok := r.entries[path]; !ok {
		return stowry.ErrNotFound
	}
	delete(r.entries, path)
	return nil
}

func (r *fakeRepo) List(_ context.Context, q stowry.ListQuery) (stowry.ListResult, error) {
	var items []stowry.MetaData
	for path, m := range r.entries {
		if strings.HasPrefix(path, q.PathPrefix) {
			items = append(items, m)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return stowry.ListResult{Items: items}, nil
}

type fakeStorage struct {
	files   map[string][]byte
	deletes []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte)}
}

type nopReadSeekCloser struct{ *bytes.Reader }

func (nopReadSeekCloser) Close() error { return nil }

func (s *fakeStorage) Get(_ context.Context, path string) (io.ReadSeekCloser, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, stowry.ErrNotFound
	}
	return nopReadSeekCloser{bytes.NewReader(data)}, nil
}

func (s *fakeStorage) Write(_ context.Context, path string, content io.Reader) (stowry.SaveResult, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return stowry.SaveResult{}, err
	}
	s.files[path] = data
	return stowry.SaveResult{BytesWritten: int64(len(data)), Etag: fmt.Sprintf("etag-%d", len(data))}, nil
}

func (s *fakeStorage) Delete(_ context.Context, path string) error {
	s.deletes = append(s.deletes, path)
	if _, ok := s.files[path]; !ok {
		return stowry.ErrNotFound
	}
	delete(s.files, path)
	return nil
}

func (s *fakeStorage) List(_ context.Context) ([]stowry.ObjectEntry, error) {
	var entries []stowry.ObjectEntry
	for path, data := range s.files {
		entries = append(entries, stowry.ObjectEntry{
			Path:        path,
			Size:        int64(len(data)),
			ETag:        fmt.Sprintf("etag-%d", len(data)),
			ContentType: "application/octet-stream",
		})
	}
	return entries, nil
}

func newTestService(t *testing.T, mode stowry.ServerMode) (*stowry.Service, *fakeRepo, *fakeStorage) {
	t.Helper()
	repo := newFakeRepo()
	storage := newFakeStorage()
	svc, err := stowry.NewService(repo, storage, stowry.ServiceConfig{Mode: mode})
	require.NoError(t, err)
	return svc, repo, storage
}

func TestNewServiceInvalidMode(t *testing.T) {
	_, err := stowry.NewService(newFakeRepo(), newFakeStorage(), stowry.ServiceConfig{Mode: "proxy"})
	assert.Error(t, err)
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores bytes and metadata", func(t *testing.T) {
		svc, repo, storage := newTestService(t, stowry.ModeStore)

		m, err := svc.Create(ctx, stowry.CreateObject{Path: "a.txt", ContentType: "text/plain"},
			strings.NewReader("hello"))
		require.NoError(t, err)

		assert.Equal(t, "a.txt", m.Path)
		assert.Equal(t, int64(5), m.FileSizeBytes)
		assert.Equal(t, "text/plain", m.ContentType)
		assert.Contains(t, repo.entries, "a.txt")
		assert.Contains(t, storage.files, "a.txt")
	})

	t.Run("input validation", func(t *testing.T) {
		svc, _, _ := newTestService(t, stowry.ModeStore)

		tests := []struct {
			name string
			obj  stowry.CreateObject
		}{
			{name: "empty path", obj: stowry.CreateObject{ContentType: "text/plain"}},
			{name: "empty content type", obj: stowry.CreateObject{Path: "a.txt"}},
			{name: "traversal path", obj: stowry.CreateObject{Path: "../a.txt", ContentType: "text/plain"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, tt.obj, strings.NewReader("x"))
				assert.ErrorIs(t, err, stowry.ErrInvalidInput)
			})
		}
	})

	t.Run("rolls back file on metadata failure", func(t *testing.T) {
		svc, repo, storage := newTestService(t, stowry.ModeStore)
		repo.upsertErr = errors.New("constraint violation")

		_, err := svc.Create(ctx, stowry.CreateObject{Path: "a.txt", ContentType: "text/plain"},
			strings.NewReader("hello"))
		require.Error(t, err)

		assert.NotContains(t, storage.files, "a.txt")
		assert.Contains(t, storage.deletes, "a.txt")
	})
}

func TestServiceGet(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, svc *stowry.Service, paths ...string) {
		t.Helper()
		for _, p := range paths {
			_, err := svc.Create(ctx, stowry.CreateObject{Path: p, ContentType: "text/html"},
				strings.NewReader("content of "+p))
			require.NoError(t, err)
		}
	}

	t.Run("store mode", func(t *testing.T) {
		svc, _, _ := newTestService(t, stowry.ModeStore)
		seed(t, svc, "a.txt")

		m, f, err := svc.Get(ctx, "a.txt")
		require.NoError(t, err)
		defer f.Close()

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "content of a.txt", string(data))
		assert.Equal(t, "a.txt", m.Path)

		_, _, err = svc.Get(ctx, "missing.txt")
		assert.ErrorIs(t, err, stowry.ErrNotFound)

		_, _, err = svc.Get(ctx, "")
		assert.ErrorIs(t, err, stowry.ErrNotFound)
	})

	t.Run("static mode falls back to directory index", func(t *testing.T) {
		svc, _, _ := newTestService(t, stowry.ModeStatic)
		seed(t, svc, "index.html", "docs/index.html")

		m, f, err := svc.Get(ctx, "docs")
		require.NoError(t, err)
		f.Close()
		assert.Equal(t, "docs/index.html", m.Path)

		m, f, err = svc.Get(ctx, "")
		require.NoError(t, err)
		f.Close()
		assert.Equal(t, "index.html", m.Path)

		_, _, err = svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, stowry.ErrNotFound)
	})

	t.Run("spa mode falls back to root index", func(t *testing.T) {
		svc, _, _ := newTestService(t, stowry.ModeSPA)
		seed(t, svc, "index.html", "app.js")

		m, f, err := svc.Get(ctx, "app.js")
		require.NoError(t, err)
		f.Close()
		assert.Equal(t, "app.js", m.Path)

		m, f, err = svc.Get(ctx, "some/client/route")
		require.NoError(t, err)
		f.Close()
		assert.Equal(t, "index.html", m.Path)
	})
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo, storage := newTestService(t, stowry.ModeStore)

	_, err := svc.Create(ctx, stowry.CreateObject{Path: "a.txt", ContentType: "text/plain"},
		strings.NewReader("hello"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "a.txt"))
	assert.NotContains(t, repo.entries, "a.txt")
	assert.NotContains(t, storage.files, "a.txt")

	assert.ErrorIs(t, svc.Delete(ctx, "a.txt"), stowry.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, ""), stowry.ErrInvalidInput)
}

func TestServicePopulate(t *testing.T) {
	ctx := context.Background()
	svc, repo, storage := newTestService(t, stowry.ModeStore)

	storage.files["a.txt"] = []byte("aa")
	storage.files["docs/b.txt"] = []byte("bbb")

	require.NoError(t, svc.Populate(ctx))
	assert.Len(t, repo.entries, 2)
	assert.Equal(t, int64(3), repo.entries["docs/b.txt"].FileSizeBytes)
}

func TestServiceList(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, stowry.ModeStore)

	for _, p := range []string{"docs/a.txt", "docs/b.txt", "img/c.png"} {
		_, err := svc.Create(ctx, stowry.CreateObject{Path: p, ContentType: "text/plain"},
			strings.NewReader("x"))
		require.NoError(t, err)
	}

	res, err := svc.List(ctx, stowry.ListQuery{PathPrefix: "docs/"})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "docs/a.txt", res.Items[0].Path)
	assert.Equal(t, "docs/b.txt", res.Items[1].Path)
}
