package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"driveauth/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteFileName is the database file created inside the token-cache directory.
const SQLiteFileName = "tokens.db"

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	key        TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	scopes     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(dir string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: filepath.Join(dir, SQLiteFileName),
	}
}

func (s *SQLiteStore) Initialize() error {
	if err := os.MkdirAll(filepath.Dir(s.dbPath), DirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := os.Chmod(s.dbPath, FilePerms); err != nil {
		db.Close()
		return fmt.Errorf("failed to restrict database permissions: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (*models.CachedToken, error) {
	var tokenJSON, scopesJSON, updatedAt string

	row := s.db.QueryRowContext(ctx,
		"SELECT token, scopes, updated_at FROM tokens WHERE key = ?", key)
	err := row.Scan(&tokenJSON, &scopesJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	tok := &models.CachedToken{Key: key}
	if err := json.Unmarshal([]byte(tokenJSON), &tok.Token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	if tok.Token == nil {
		return nil, fmt.Errorf("%w: %s missing token field", ErrMissingToken, key)
	}
	if err := json.Unmarshal([]byte(scopesJSON), &tok.Scopes); err != nil {
		return nil, fmt.Errorf("failed to decode scopes: %w", err)
	}
	if tok.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to decode timestamp: %w", err)
	}

	return tok, nil
}

func (s *SQLiteStore) Save(ctx context.Context, tok *models.CachedToken) error {
	if tok.Token == nil {
		return fmt.Errorf("%w: %s", ErrMissingToken, tok.Key)
	}

	tokenJSON, err := json.Marshal(tok.Token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	scopesJSON, err := json.Marshal(tok.Scopes)
	if err != nil {
		return fmt.Errorf("failed to encode scopes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO tokens (key, token, scopes, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	token = excluded.token,
	scopes = excluded.scopes,
	updated_at = excluded.updated_at`,
		tok.Key, string(tokenJSON), string(scopesJSON), tok.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
