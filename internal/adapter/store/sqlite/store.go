package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akhmerov/prereview/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per recorded pipeline run
	CREATE TABLE IF NOT EXISTS builds (
		run_id TEXT PRIMARY KEY,
		context_id TEXT NOT NULL,
		diff_fingerprint TEXT NOT NULL,
		source_mode TEXT NOT NULL,
		files_changed INTEGER NOT NULL,
		additions INTEGER NOT NULL,
		deletions INTEGER NOT NULL,
		valid INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	-- Indexes for history listing and context lookups
	CREATE INDEX IF NOT EXISTS idx_builds_created ON builds(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_builds_context ON builds(context_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveBuild stores one build record.
func (s *Store) SaveBuild(ctx context.Context, build store.Build) error {
	query := `
		INSERT INTO builds (run_id, context_id, diff_fingerprint, source_mode, files_changed, additions, deletions, valid, errors, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	valid := 0
	if build.Valid {
		valid = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		build.RunID,
		build.ContextID,
		build.DiffFingerprint,
		build.SourceMode,
		build.FilesChanged,
		build.Additions,
		build.Deletions,
		valid,
		build.Errors,
		build.Warnings,
		build.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to save build: %w", err)
	}

	return nil
}

// GetBuild retrieves a build by run ID.
func (s *Store) GetBuild(ctx context.Context, runID string) (store.Build, error) {
	query := `
		SELECT run_id, context_id, diff_fingerprint, source_mode, files_changed, additions, deletions, valid, errors, warnings, created_at
		FROM builds
		WHERE run_id = ?
	`

	build, err := scanBuild(s.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if err == sql.ErrNoRows {
			return store.Build{}, fmt.Errorf("build not found: %s", runID)
		}
		return store.Build{}, fmt.Errorf("failed to get build: %w", err)
	}

	return build, nil
}

// ListBuilds retrieves the most recent builds, limited by the given count.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]store.Build, error) {
	query := `
		SELECT run_id, context_id, diff_fingerprint, source_mode, files_changed, additions, deletions, valid, errors, warnings, created_at
		FROM builds
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []store.Build
	for rows.Next() {
		build, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, build)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating builds: %w", err)
	}

	return builds, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (store.Build, error) {
	var build store.Build
	var valid int
	var createdAt int64

	if err := row.Scan(
		&build.RunID,
		&build.ContextID,
		&build.DiffFingerprint,
		&build.SourceMode,
		&build.FilesChanged,
		&build.Additions,
		&build.Deletions,
		&valid,
		&build.Errors,
		&build.Warnings,
		&createdAt,
	); err != nil {
		return store.Build{}, err
	}

	build.Valid = valid == 1
	build.CreatedAt = time.Unix(createdAt, 0)
	return build, nil
}
