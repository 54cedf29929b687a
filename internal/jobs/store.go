// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jobs persists asynchronous analysis runs in a SQLite database
// and executes them in the background.
package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/atoms-tech/requirements-engine/pkg/types"
)

const (
	dbFile           = "jobs.db"
	defaultRetention = 24 * time.Hour

	// sqlTimeFormat is fixed-width so stored timestamps compare correctly
	// as TEXT in SQL.
	sqlTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound reports an unknown run ID.
var ErrNotFound = errors.New("job not found")

// Store manages the job database.
type Store struct {
	db        *sql.DB
	retention time.Duration
}

// NewStore opens or creates the job database at dataDir/jobs.db and
// creates the schema when missing.
func NewStore(cfg types.JobsConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening job database: %w", err)
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	s := &Store{db: db, retention: retention}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			run_id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			state TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			result TEXT,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs(state)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Create records a new QUEUED job and returns it with a fresh run ID.
func (s *Store) Create(ctx context.Context, organizationID string) (*types.Job, error) {
	job := &types.Job{
		RunID:          uuid.NewString(),
		OrganizationID: organizationID,
		State:          types.JobQueued,
		StartedAt:      time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (run_id, organization_id, state, started_at) VALUES (?, ?, ?, ?)`,
		job.RunID, job.OrganizationID, string(job.State),
		job.StartedAt.Format(sqlTimeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting job: %w", err)
	}
	return job, nil
}

// MarkRunning transitions a job to RUNNING.
func (s *Store) MarkRunning(ctx context.Context, runID string) error {
	return s.setState(ctx, runID,
		`UPDATE jobs SET state = ? WHERE run_id = ?`,
		string(types.JobRunning), runID)
}

// Complete transitions a job to DONE and stores its result.
func (s *Store) Complete(ctx context.Context, runID string, result *types.AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return s.setState(ctx, runID,
		`UPDATE jobs SET state = ?, completed_at = ?, result = ? WHERE run_id = ?`,
		string(types.JobDone), time.Now().UTC().Format(sqlTimeFormat),
		string(resultJSON), runID)
}

// Fail transitions a job to FAILED with an error message.
func (s *Store) Fail(ctx context.Context, runID, message string) error {
	return s.setState(ctx, runID,
		`UPDATE jobs SET state = ?, completed_at = ?, error = ? WHERE run_id = ?`,
		string(types.JobFailed), time.Now().UTC().Format(sqlTimeFormat),
		message, runID)
}

func (s *Store) setState(ctx context.Context, runID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating job %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating job %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", runID, ErrNotFound)
	}
	return nil
}

// Get returns one job by run ID.
func (s *Store) Get(ctx context.Context, runID string) (*types.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, organization_id, state, started_at, completed_at, result, error
		 FROM jobs WHERE run_id = ?`, runID)

	var (
		job         types.Job
		state       string
		startedAt   string
		completedAt sql.NullString
		result      sql.NullString
		errMsg      sql.NullString
	)
	err := row.Scan(&job.RunID, &job.OrganizationID, &state, &startedAt,
		&completedAt, &result, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading job %s: %w", runID, err)
	}

	job.State = types.JobState(state)
	job.StartedAt, err = time.Parse(sqlTimeFormat, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at for job %s: %w", runID, err)
	}
	if completedAt.Valid {
		t, err := time.Parse(sqlTimeFormat, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at for job %s: %w", runID, err)
		}
		job.CompletedAt = &t
	}
	if result.Valid && result.String != "" {
		var r types.AnalysisResult
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return nil, fmt.Errorf("parsing result for job %s: %w", runID, err)
		}
		job.Result = &r
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}

	return &job, nil
}

// Prune deletes finished jobs older than the retention window and returns
// how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention).Format(sqlTimeFormat)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE state IN (?, ?) AND completed_at < ?`,
		string(types.JobDone), string(types.JobFailed), cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning jobs: %w", err)
	}
	return n, nil
}
