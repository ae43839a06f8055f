package localstate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
)

// FileStore persists each key as a JSON file inside a state directory.
// Writes go through a temp file and an os.Rename so a crash mid-write never
// leaves a half-written payload behind.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Get reads the value stored under key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("state key", key)
		}
		return nil, fmt.Errorf("read state key %q: %w", key, err)
	}
	return data, nil
}

// Set writes the value under key atomically.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	path := s.path(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return fmt.Errorf("write state key %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit state key %q: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key. Deleting an absent key is not
// an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete state key %q: %w", key, err)
	}
	return nil
}

// path maps a key to a file name, replacing separators that would escape the
// state directory.
func (s *FileStore) path(key string) string {
	sanitized := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, sanitized+".json")
}
