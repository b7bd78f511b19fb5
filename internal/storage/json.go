package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hyperjump/inkwell/internal/models"
)

// DefaultIndexPath is used when no content index path is configured.
const DefaultIndexPath = "content/index.json"

// JSONStorage reads the post index from a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage returns a store backed by the file at path, or DefaultIndexPath when path is empty.
func NewJSONStorage(path string) *JSONStorage {
	if path == "" {
		path = DefaultIndexPath
	}
	return &JSONStorage{path: path}
}

// Path returns the index file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load reads and decodes the whole index file. A missing or malformed file is an error.
func (s *JSONStorage) Load(ctx context.Context) (*models.PostIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content index: %w", err)
	}
	var idx models.PostIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse content index %s: %w", s.path, err)
	}
	return &idx, nil
}

// IndexInfo describes the index file on disk.
type IndexInfo struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// Stat reports the size and modification time of the index file.
func (s *JSONStorage) Stat() (IndexInfo, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		return IndexInfo{}, fmt.Errorf("failed to stat content index: %w", err)
	}
	if fi.IsDir() {
		return IndexInfo{}, fmt.Errorf("content index %s is a directory", s.path)
	}
	return IndexInfo{Path: s.path, SizeBytes: fi.Size(), ModTime: fi.ModTime()}, nil
}
