package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"driveauth/models"
)

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

var (
	ErrUnknownStore = errors.New("storage: unknown token store")
	ErrMissingToken = errors.New("storage: record has no token")
)

// TokenStore persists OAuth tokens inside a token-cache directory.
// Load returns (nil, nil) when nothing is stored under key.
type TokenStore interface {
	Load(ctx context.Context, key string) (*models.CachedToken, error)
	Save(ctx context.Context, tok *models.CachedToken) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the store of the given kind rooted at dir. An empty kind
// selects the file store.
func Open(kind, dir string) (TokenStore, error) {
	switch kind {
	case "", KindFile:
		return NewFileStore(dir), nil
	case KindSQLite:
		s := NewSQLiteStore(dir)
		if err := s.Initialize(); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, kind)
	}
}

// Exists reports whether a store of the given kind may hold data under dir.
// Opening a SQLite store creates its database, so read-only callers check
// this first. File stores and unknown kinds always report true.
func Exists(kind, dir string) bool {
	if kind != KindSQLite {
		return true
	}
	_, err := os.Stat(filepath.Join(dir, SQLiteFileName))
	return err == nil
}
