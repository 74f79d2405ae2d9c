// Package store persists batch runs and per-product profiles in SQLite, so
// past runs can be reported on without re-running the pipeline.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"prodlens/internal/batch"
	"prodlens/internal/logging"
	"prodlens/internal/pipeline"
)

// ResultStore is the SQLite-backed history of batch runs.
type ResultStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// RunMeta is one row of the run listing.
type RunMeta struct {
	RunID     string
	InputDir  string
	StartedAt time.Time
	Elapsed   time.Duration
	Total     int
	Succeeded int
	Failed    int
}

// Open initializes the SQLite database at the given path, creating the
// parent directory and schema when missing.
func Open(path string) (*ResultStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreError("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreError("failed to set journal_mode=WAL: %v", err)
	}

	s := &ResultStore{db: db, dbPath: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("opened result store at %s", path)
	return s, nil
}

// Close releases the underlying database handle.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

func (s *ResultStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batch_runs (
		run_id      TEXT PRIMARY KEY,
		input_dir   TEXT NOT NULL DEFAULT '',
		started_at  TEXT NOT NULL,
		elapsed_ns  INTEGER NOT NULL,
		total       INTEGER NOT NULL,
		succeeded   INTEGER NOT NULL,
		failed      INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS batch_products (
		run_id       TEXT NOT NULL REFERENCES batch_runs(run_id),
		position     INTEGER NOT NULL,
		product_name TEXT NOT NULL,
		image_count  INTEGER NOT NULL,
		status       TEXT NOT NULL,
		failed_stage TEXT NOT NULL DEFAULT '',
		error_kind   TEXT NOT NULL DEFAULT '',
		error        TEXT NOT NULL DEFAULT '',
		elapsed_ns   INTEGER NOT NULL,
		profile_json TEXT,
		PRIMARY KEY (run_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_batch_products_name ON batch_products(product_name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun persists a batch result and all of its outcomes in one
// transaction.
func (s *ResultStore) SaveRun(result *batch.Result, inputDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	succeeded, failed := 0, 0
	for _, out := range result.Outcomes {
		if out.Status == pipeline.StateSucceeded {
			succeeded++
		} else {
			failed++
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO batch_runs (run_id, input_dir, started_at, elapsed_ns, total, succeeded, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, inputDir, result.StartedAt.UTC().Format(time.RFC3339Nano),
		int64(result.Elapsed), len(result.Outcomes), succeeded, failed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", result.RunID, err)
	}

	for i, out := range result.Outcomes {
		var profileJSON sql.NullString
		if out.Profile != nil {
			data, err := json.Marshal(out.Profile)
			if err != nil {
				return fmt.Errorf("failed to marshal profile for %s: %w", out.ProductName, err)
			}
			profileJSON = sql.NullString{String: string(data), Valid: true}
		}
		_, err = tx.Exec(
			`INSERT INTO batch_products
			 (run_id, position, product_name, image_count, status, failed_stage, error_kind, error, elapsed_ns, profile_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID, i, out.ProductName, out.ImageCount, string(out.Status),
			out.FailedStage, out.ErrorKind, out.Error, int64(out.Elapsed), profileJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to insert product %s: %w", out.ProductName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", result.RunID, err)
	}
	logging.Store("saved run %s (%d products)", result.RunID, len(result.Outcomes))
	return nil
}

// LoadRun reconstructs a stored batch result, outcomes in original order.
func (s *ResultStore) LoadRun(runID string) (*batch.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &batch.Result{RunID: runID}
	var startedAt string
	var elapsedNS int64
	err := s.db.QueryRow(
		`SELECT started_at, elapsed_ns FROM batch_runs WHERE run_id = ?`, runID,
	).Scan(&startedAt, &elapsedNS)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	result.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
	}
	result.Elapsed = time.Duration(elapsedNS)

	rows, err := s.db.Query(
		`SELECT product_name, image_count, status, failed_stage, error_kind, error, elapsed_ns, profile_json
		 FROM batch_products WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load products for run %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var out batch.Outcome
		var status string
		var outcomeNS int64
		var profileJSON sql.NullString
		if err := rows.Scan(&out.ProductName, &out.ImageCount, &status, &out.FailedStage,
			&out.ErrorKind, &out.Error, &outcomeNS, &profileJSON); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		out.Status = pipeline.RunState(status)
		out.Elapsed = time.Duration(outcomeNS)
		if profileJSON.Valid {
			var profile pipeline.ProductProfile
			if err := json.Unmarshal([]byte(profileJSON.String), &profile); err != nil {
				return nil, fmt.Errorf("failed to unmarshal profile for %s: %w", out.ProductName, err)
			}
			out.Profile = &profile
		}
		result.Outcomes = append(result.Outcomes, out)
	}
	return result, rows.Err()
}

// ListRuns returns run metadata, most recent first.
func (s *ResultStore) ListRuns(limit int) ([]RunMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT run_id, input_dir, started_at, elapsed_ns, total, succeeded, failed
		 FROM batch_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var metas []RunMeta
	for rows.Next() {
		var meta RunMeta
		var startedAt string
		var elapsedNS int64
		if err := rows.Scan(&meta.RunID, &meta.InputDir, &startedAt, &elapsedNS,
			&meta.Total, &meta.Succeeded, &meta.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		meta.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
		}
		meta.Elapsed = time.Duration(elapsedNS)
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}
