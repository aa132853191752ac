package stowry

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// MetaData describes one stored object.
type MetaData struct {
	ID            uuid.UUID `json:"id"`
	Path          string    `json:"path"`
	ContentType   string    `json:"content_type"`
	Etag          string    `json:"etag"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ObjectEntry is what a storage backend reports for a file it holds.
type ObjectEntry struct {
	Path        string
	Size        int64
	ETag        string
	ContentType string
}

// ListQuery selects a page of metadata entries.
type ListQuery struct {
	PathPrefix string
	Limit      int
	Cursor     string
}

// ListResult is one page of metadata entries. NextCursor is empty on the
// last page.
type ListResult struct {
	Items      []MetaData `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// SaveResult reports the outcome of a storage write.
type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// CreateObject is the input for storing a new object.
type CreateObject struct {
	Path        string
	ContentType string
}

// ServerMode selects how GET requests resolve paths.
type ServerMode string

const (
	ModeStore  ServerMode = "store"
	ModeStatic ServerMode = "static"
	ModeSPA    ServerMode = "spa"
)

func (m ServerMode) IsValid() bool {
	switch m {
	case ModeStore, ModeStatic, ModeSPA:
		return true
	}
	return false
}

func ParseServerMode(s string) (ServerMode, error) {
	mode := ServerMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid server mode: %s (valid modes: store, static, spa)", s)
	}
	return mode, nil
}

// Tables holds configurable table names for metadata storage, letting
// several deployments share one database.
type Tables struct {
	MetaData string `mapstructure:"meta_data"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName reports whether name is usable as a table identifier:
// lowercase alphanumeric with underscores, at most 63 characters.
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.MetaData == "" {
		return errors.New("validate tables: metadata table name cannot be empty")
	}
	if !IsValidTableName(t.MetaData) {
		return fmt.Errorf("validate tables: invalid metadata table name: %s", t.MetaData)
	}
	return nil
}
