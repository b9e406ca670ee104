// Package cache persists lint results between runs so unchanged files
// are never re-parsed. Results are keyed on the file path, a digest of
// the file content, and a fingerprint of the effective configuration;
// any of the three changing is a miss.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"jsvet/internal/logging"
	"jsvet/internal/rules"
)

// DBName is the cache database file name inside the cache directory.
const DBName = "results.db"

// Store manages the lint result cache database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// RunRecord summarizes one completed lint run.
type RunRecord struct {
	ID             string
	StartedAt      time.Time
	Duration       time.Duration
	FilesChecked   int
	FilesFromCache int
	Errors         int
	Warnings       int
}

// Stats describes the cache contents.
type Stats struct {
	Results   int
	Runs      int
	SizeBytes int64
}

// NewStore creates or opens the result cache in dir.
func NewStore(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, DBName)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// initSchema creates the database schema.
func (s *Store) initSchema() error {
	schema := `
	-- Cache bookkeeping (tool version and friends)
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- Cached lint results, one row per (path, config fingerprint)
	CREATE TABLE IF NOT EXISTS results (
		path TEXT NOT NULL,
		hash TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		violations_json TEXT NOT NULL,
		linted_at DATETIME NOT NULL,
		PRIMARY KEY (path, fingerprint)
	);
	CREATE INDEX IF NOT EXISTS idx_results_linted ON results(linted_at);

	-- Run history
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		files_checked INTEGER NOT NULL,
		files_cached INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// EnsureVersion wipes cached results when the tool version changed.
// Rule semantics can shift between releases, so results from another
// build are not trusted.
func (s *Store) EnsureVersion(version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read cache version: %w", err)
	}

	if stored == version {
		return nil
	}

	if stored != "" {
		logging.Cache("tool version changed (%s -> %s), clearing cached results", stored, version)
		if _, err := s.db.Exec(`DELETE FROM results`); err != nil {
			return fmt.Errorf("failed to clear stale results: %w", err)
		}
	}

	_, err = s.db.Exec(`
		INSERT INTO meta (key, value) VALUES ('version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, version)
	return err
}

// =============================================================================
// RESULT OPERATIONS
// =============================================================================

// Get returns the cached violations for a file. The second return is
// false on a miss: unknown path, changed content, or changed config.
func (s *Store) Get(path, hash, fingerprint string) ([]rules.Violation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var violationsJSON string
	err := s.db.QueryRow(`
		SELECT violations_json FROM results
		WHERE path = ? AND fingerprint = ? AND hash = ?
	`, path, fingerprint, hash).Scan(&violationsJSON)

	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		logging.CacheWarn("cache lookup for %s failed: %v", path, err)
		return nil, false
	}

	var violations []rules.Violation
	if err := json.Unmarshal([]byte(violationsJSON), &violations); err != nil {
		// A corrupt row is just a miss; the file gets re-linted
		logging.CacheWarn("corrupt cache row for %s: %v", path, err)
		return nil, false
	}

	return violations, true
}

// Put stores the violations for a file, replacing any previous result
// for the same path and fingerprint.
func (s *Store) Put(path, hash, fingerprint string, violations []rules.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	violationsJSON, err := json.Marshal(violations)
	if err != nil {
		return fmt.Errorf("failed to marshal violations: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO results (path, hash, fingerprint, violations_json, linted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path, fingerprint) DO UPDATE SET
			hash = excluded.hash,
			violations_json = excluded.violations_json,
			linted_at = excluded.linted_at
	`, path, hash, fingerprint, violationsJSON, time.Now())

	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

// Invalidate drops all cached results for a path, across fingerprints.
func (s *Store) Invalidate(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM results WHERE path = ?`, path)
	return err
}

// =============================================================================
// RUN HISTORY OPERATIONS
// =============================================================================

// RecordRun stores a run summary.
func (s *Store) RecordRun(r *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, started_at, duration_ms, files_checked, files_cached, errors, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StartedAt, r.Duration.Milliseconds(), r.FilesChecked, r.FilesFromCache,
		r.Errors, r.Warnings)

	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run summary, or nil if none exists.
func (s *Store) LastRun() (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r RunRecord
	var durationMs int64

	err := s.db.QueryRow(`
		SELECT id, started_at, duration_ms, files_checked, files_cached, errors, warnings
		FROM runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&r.ID, &r.StartedAt, &durationMs, &r.FilesChecked, &r.FilesFromCache,
		&r.Errors, &r.Warnings)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last run: %w", err)
	}

	r.Duration = time.Duration(durationMs) * time.Millisecond
	return &r, nil
}

// RecentRuns returns run summaries, newest first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, started_at, duration_ms, files_checked, files_cached, errors, warnings
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &durationMs, &r.FilesChecked,
			&r.FilesFromCache, &r.Errors, &r.Warnings); err != nil {
			continue
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, nil
}

// =============================================================================
// MAINTENANCE OPERATIONS
// =============================================================================

// Stats returns cache counters and the database file size.
func (s *Store) Stats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&st.Results); err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&st.Runs); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		st.SizeBytes = info.Size()
	}

	return &st, nil
}

// Prune deletes results older than the given age and returns how many
// rows were removed.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	result, err := s.db.Exec(`DELETE FROM results WHERE linted_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune results: %w", err)
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}

// Clear removes all cached results and run history.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM results`); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM runs`); err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}
	return nil
}
