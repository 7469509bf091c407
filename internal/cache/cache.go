// Package cache implements the local mirror cache: a per-collection snapshot
// store used to paint screens immediately on entry. A snapshot is whatever the
// corresponding remote fetch produced, serialized as JSON. Reads may be stale;
// the next successful remote fetch unconditionally replaces the entry.
package cache

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // Pure Go sqlite driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Well-known collection keys. One entry per collection; a write replaces the
// prior value.
const (
	KeyDishes       = "dishes"
	KeyWeeklyPlan   = "weekly_plan"
	KeyShoppingList = "shopping_list"
	KeySession      = "session"
)

// Store is a SQLite-backed key-value snapshot store.
type Store struct {
	db *sql.DB
}

// Open initializes the cache database at dbPath and runs migrations.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run cache migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Read returns the snapshot stored under key. The second return value is false
// when no snapshot exists.
func (s *Store) Read(key string) ([]byte, bool, error) {
	var snapshot string
	err := s.db.QueryRow(`SELECT snapshot FROM snapshots WHERE collection_key = ?`, key).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot %q: %w", key, err)
	}
	return []byte(snapshot), true, nil
}

// Write stores a snapshot under key, replacing any prior value.
func (s *Store) Write(key string, snapshot []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO snapshots (collection_key, snapshot, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (collection_key) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		key, string(snapshot), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", key, err)
	}
	return nil
}

// Clear removes the snapshot stored under key, if any.
func (s *Store) Clear(key string) error {
	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE collection_key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear snapshot %q: %w", key, err)
	}
	return nil
}

// ReadJSON reads the snapshot under key and unmarshals it into v.
func (s *Store) ReadJSON(key string, v any) (bool, error) {
	data, ok, err := s.Read(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal snapshot %q: %w", key, err)
	}
	return true, nil
}

// WriteJSON marshals v and stores it under key.
func (s *Store) WriteJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot %q: %w", key, err)
	}
	return s.Write(key, data)
}

func runMigrations(dbPath string) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create iofs driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, fmt.Sprintf("sqlite://%s", dbPath))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
