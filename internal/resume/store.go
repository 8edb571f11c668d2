package resume

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"encore/internal/config"
)

// schemaVersion is the current schema version. Bump on schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS resume_points (
    key         TEXT PRIMARY KEY,
    position_ms INTEGER NOT NULL,
    updated_at  TEXT NOT NULL
);
`

// Record is one persisted resume point.
type Record struct {
	Key        string
	PositionMS int64
	UpdatedAt  time.Time
}

// Store manages resume persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the resume database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "resume.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'encore resume clear --all' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Get returns the stored position for an exact key. The boolean reports
// whether the key exists at all; a stored zero is a valid cleared entry.
func (s *Store) Get(ctx context.Context, key string) (int64, bool, error) {
	var positionMS int64
	err := s.db.QueryRowContext(ctx,
		"SELECT position_ms FROM resume_points WHERE key = ?", key,
	).Scan(&positionMS)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get resume point: %w", err)
	}
	return positionMS, true, nil
}

// GetBest walks the key candidate ladder and returns the first stored
// position greater than zero. The boolean reports whether any candidate hit.
func (s *Store) GetBest(ctx context.Context, rawKey string) (time.Duration, bool, error) {
	for _, candidate := range Candidates(rawKey) {
		positionMS, exists, err := s.Get(ctx, candidate)
		if err != nil {
			return 0, false, err
		}
		if exists && positionMS > 0 {
			return time.Duration(positionMS) * time.Millisecond, true, nil
		}
	}
	return 0, false, nil
}

// Save upserts a resume point for the exact key.
func (s *Store) Save(ctx context.Context, key string, position time.Duration) error {
	positionMS := position.Milliseconds()
	if positionMS < 0 {
		positionMS = 0
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resume_points (key, position_ms, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET position_ms = excluded.position_ms, updated_at = excluded.updated_at`,
		key, positionMS, timestamp,
	)
	if err != nil {
		return fmt.Errorf("save resume point: %w", err)
	}
	return nil
}

// Clear writes the zero sentinel for the key, marking the content fully
// watched rather than forgetting it.
func (s *Store) Clear(ctx context.Context, key string) error {
	return s.Save(ctx, key, 0)
}

// Delete removes a key entirely.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM resume_points WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete resume point: %w", err)
	}
	return nil
}

// DeleteAll removes every stored resume point.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM resume_points")
	if err != nil {
		return 0, fmt.Errorf("clear resume points: %w", err)
	}
	return res.RowsAffected()
}

// List returns all stored resume points, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, position_ms, updated_at FROM resume_points ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list resume points: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var updatedAt string
		if err := rows.Scan(&rec.Key, &rec.PositionMS, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan resume point: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, updatedAt); parseErr == nil {
			rec.UpdatedAt = parsed
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
