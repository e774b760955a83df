package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"driveauth/models"
)

// FilePerms restricts token files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the token-cache directory.
const DirPerms = 0o700

// FileStore keeps one JSON document per key in dir.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Load(_ context.Context, key string) (*models.CachedToken, error) {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}
	if err != nil {
		return nil, fmt.Errorf("storage: reading %s: %w", path, err)
	}

	var tok models.CachedToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("storage: decoding %s: %w", path, err)
	}
	if tok.Token == nil {
		return nil, fmt.Errorf("%w: %s missing token field", ErrMissingToken, path)
	}

	return &tok, nil
}

// Save writes the token atomically: temp file in the same directory, fsync,
// then rename over the final path.
func (s *FileStore) Save(_ context.Context, tok *models.CachedToken) error {
	if tok.Token == nil {
		return fmt.Errorf("%w: %s", ErrMissingToken, tok.Key)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encoding: %w", err)
	}

	if err := os.MkdirAll(s.dir, DirPerms); err != nil {
		return fmt.Errorf("storage: creating directory %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("storage: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: closing: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(tok.Key)); err != nil {
		return fmt.Errorf("storage: renaming: %w", err)
	}

	success = true
	return nil
}

// Delete removes the token file. A missing file is not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: removing token: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
