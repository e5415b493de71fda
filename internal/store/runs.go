package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	cverrors "codevision/internal/errors"
)

// RunStatus is the lifecycle state of an analysis run.
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunFailed    RunStatus = "FAILED"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one analysis run.
type Run struct {
	ID              string     `json:"id"`
	RepoRoot        string     `json:"repoRoot"`
	AcceptPackages  []string   `json:"acceptPackages"`
	Status          RunStatus  `json:"status"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	OutputDir       string     `json:"outputDir,omitempty"`
	Fingerprint     string     `json:"fingerprint,omitempty"`
	ClassCount      int        `json:"classCount"`
	EndpointCount   int        `json:"endpointCount"`
	DependencyCount int        `json:"dependencyCount"`
	CycleCount      int        `json:"cycleCount"`
	Error           string     `json:"error,omitempty"`
}

// RunSummary carries the counts recorded when a run succeeds.
type RunSummary struct {
	OutputDir       string
	Fingerprint     string
	ClassCount      int
	EndpointCount   int
	DependencyCount int
	CycleCount      int
}

const runColumns = `id, repo_root, accept_packages, status, started_at, completed_at, output_dir,
	fingerprint, class_count, endpoint_count, dependency_count, cycle_count, error`

// CreateRun inserts a run. Status defaults to RUNNING and StartedAt to now.
func (s *Store) CreateRun(ctx context.Context, run *Run) error {
	if run.Status == "" {
		run.Status = RunRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO runs (id, repo_root, accept_packages, status, started_at, output_dir, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.RepoRoot,
		strings.Join(run.AcceptPackages, ","),
		run.Status,
		run.StartedAt.UTC().Format(timeLayout),
		nullString(run.OutputDir),
		nullString(run.Fingerprint),
	)
	if err != nil {
		return cverrors.New(cverrors.StoreFailed, "failed to create run", err)
	}
	s.logger.Debug("Created run", "runId", run.ID)
	return nil
}

// FinishRun marks a run SUCCEEDED and records its summary.
func (s *Store) FinishRun(ctx context.Context, id string, sum RunSummary) error {
	return s.completeRun(ctx, id, `
		UPDATE runs SET status = ?, completed_at = ?, output_dir = ?, fingerprint = ?,
			class_count = ?, endpoint_count = ?, dependency_count = ?, cycle_count = ?, error = NULL
		WHERE id = ?
	`,
		RunSucceeded,
		time.Now().UTC().Format(timeLayout),
		nullString(sum.OutputDir),
		nullString(sum.Fingerprint),
		sum.ClassCount,
		sum.EndpointCount,
		sum.DependencyCount,
		sum.CycleCount,
		id,
	)
}

// FailRun marks a run FAILED with the given message.
func (s *Store) FailRun(ctx context.Context, id string, message string) error {
	return s.completeRun(ctx, id, `
		UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?
	`,
		RunFailed,
		time.Now().UTC().Format(timeLayout),
		nullString(message),
		id,
	)
}

func (s *Store) completeRun(ctx context.Context, id, query string, args ...interface{}) error {
	result, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return cverrors.New(cverrors.StoreFailed, "failed to update run", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return cverrors.Newf(cverrors.RunNotFound, "run not found: %s", id)
	}
	return nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.conn.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, cverrors.Newf(cverrors.RunNotFound, "run not found: %s", id)
	}
	if err != nil {
		return nil, cverrors.New(cverrors.StoreFailed, "failed to read run", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, cverrors.New(cverrors.StoreFailed, "failed to list runs", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, cverrors.New(cverrors.StoreFailed, "failed to scan run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, cverrors.New(cverrors.StoreFailed, "error iterating runs", err)
	}
	return runs, nil
}

// FindByFingerprint returns the latest successful run over an identical classpath.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (*Run, error) {
	row := s.conn.QueryRowContext(ctx, "SELECT "+runColumns+
		" FROM runs WHERE fingerprint = ? AND status = ? ORDER BY started_at DESC LIMIT 1",
		fingerprint, RunSucceeded)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, cverrors.New(cverrors.StoreFailed, "failed to read run", err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var accept, completedAt, outputDir, fingerprint, errMsg sql.NullString
	var startedAt string

	err := row.Scan(
		&run.ID,
		&run.RepoRoot,
		&accept,
		&run.Status,
		&startedAt,
		&completedAt,
		&outputDir,
		&fingerprint,
		&run.ClassCount,
		&run.EndpointCount,
		&run.DependencyCount,
		&run.CycleCount,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	run.AcceptPackages = []string{}
	if accept.String != "" {
		run.AcceptPackages = strings.Split(accept.String, ",")
	}
	run.OutputDir = outputDir.String
	run.Fingerprint = fingerprint.String
	run.Error = errMsg.String
	if t, err := time.Parse(timeLayout, startedAt); err == nil {
		run.StartedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(timeLayout, completedAt.String); err == nil {
			run.CompletedAt = &t
		}
	}
	return &run, nil
}
