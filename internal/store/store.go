// Package store persists analysis runs and their graphs in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	cverrors "codevision/internal/errors"
)

const schemaVersion = 1

// Store is the run registry and graph archive.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// Open opens or creates the database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, cverrors.New(cverrors.StoreFailed, "failed to create store directory", err)
	}
	created := !fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, cverrors.New(cverrors.StoreFailed, "failed to open store", err)
	}
	// Pragmas apply per connection.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-16000", // 16MB cache
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, cverrors.New(cverrors.StoreFailed, "failed to set pragma", err)
		}
	}

	s := &Store{conn: conn, logger: logger, dbPath: dbPath}
	if created {
		logger.Info("Creating analysis store", "path", dbPath)
	}
	if err := s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, cverrors.New(cverrors.StoreFailed, "failed to initialize schema", err)
	}
	return s, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			repo_root TEXT NOT NULL,
			accept_packages TEXT,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			output_dir TEXT,
			fingerprint TEXT,
			class_count INTEGER NOT NULL DEFAULT 0,
			endpoint_count INTEGER NOT NULL DEFAULT 0,
			dependency_count INTEGER NOT NULL DEFAULT 0,
			cycle_count INTEGER NOT NULL DEFAULT 0,
			error TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);

		CREATE TABLE IF NOT EXISTS classes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			package_name TEXT,
			simple_name TEXT,
			kind TEXT,
			super_class TEXT,
			stereotypes TEXT,
			entity INTEGER NOT NULL DEFAULT 0,
			table_name TEXT,
			origin TEXT NOT NULL,
			scc_id INTEGER,
			in_cycle INTEGER NOT NULL DEFAULT 0,
			location TEXT,
			PRIMARY KEY (run_id, name)
		);

		CREATE TABLE IF NOT EXISTS class_fields (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			class_name TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT,
			annotations TEXT,
			injected INTEGER NOT NULL DEFAULT 0,
			relationship INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, class_name, position)
		);

		CREATE TABLE IF NOT EXISTS dependencies (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			from_class TEXT,
			to_class TEXT,
			kind TEXT,
			label TEXT,
			PRIMARY KEY (run_id, position)
		);
		CREATE INDEX IF NOT EXISTS idx_dependencies_from ON dependencies(run_id, from_class);

		CREATE TABLE IF NOT EXISTS endpoints (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			type TEXT NOT NULL,
			http_method TEXT,
			path TEXT,
			controller_class TEXT,
			controller_method TEXT,
			produces TEXT,
			consumes TEXT,
			framework TEXT,
			PRIMARY KEY (run_id, position)
		);

		CREATE TABLE IF NOT EXISTS sequences (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			generator_name TEXT NOT NULL,
			sequence_name TEXT,
			allocation_size INTEGER,
			initial_value INTEGER,
			PRIMARY KEY (run_id, generator_name)
		);

		CREATE TABLE IF NOT EXISTS sequence_usages (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			class_name TEXT NOT NULL,
			field_name TEXT NOT NULL,
			generator_name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
			encoding TEXT NOT NULL,
			raw_size INTEGER NOT NULL,
			data BLOB NOT NULL
		);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}
	_, err := s.conn.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion)
	return err
}

// withTx runs fn in a transaction, rolling back when it fails.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction", "error", err, "rollback_error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
