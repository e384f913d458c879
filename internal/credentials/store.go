package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultStoreName is the fixed key the pool is persisted under
const DefaultStoreName = "multi_api_keys"

// Store persists the credential pool. Load returns nil when nothing was
// ever saved and a non-nil slice, possibly empty, otherwise.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, keys []string) error
	Clear(ctx context.Context) error
}

// SQLiteStore keeps the pool as a JSON array in a single row of a local
// key-value table.
type SQLiteStore struct {
	db   *sql.DB
	name string
}

// OpenSQLiteStore opens (creating if needed) the database at path.
// An empty name selects DefaultStoreName.
func OpenSQLiteStore(ctx context.Context, path, name string) (*SQLiteStore, error) {
	if name == "" {
		name = DefaultStoreName
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create key store dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStore{db: db, name: name}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS kv (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init key store schema: %w", err)
	}
	return nil
}

// Load returns the stored pool, or nil when nothing has been saved. A pool
// saved empty loads as an empty non-nil slice.
func (s *SQLiteStore) Load(ctx context.Context) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE name = ?`, s.name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, fmt.Errorf("decode keys: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Save replaces the stored pool
func (s *SQLiteStore) Save(ctx context.Context, keys []string) error {
	if keys == nil {
		keys = []string{}
	}
	raw, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("encode keys: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO kv (name, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.name, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save keys: %w", err)
	}
	return nil
}

// Clear stores an empty pool. The row is kept so a cleared pool is not
// mistaken for one that was never saved.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := s.Save(ctx, []string{}); err != nil {
		return fmt.Errorf("clear keys: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases underlying resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
