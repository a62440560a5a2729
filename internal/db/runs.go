package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hiring-signal/internal/types"
)

// CreateRun records the start of a run from its provenance.
func (db *DB) CreateRun(ctx context.Context, p types.RunProvenance) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO runs (id, tool_version, git_sha, status)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		p.RunID, p.ToolVersion, p.GitSHA, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun marks a run finished with the given status and company count.
func (db *DB) CompleteRun(ctx context.Context, runID, status string, companies int) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE runs SET status = $1, companies = $2, completed_at = NOW() WHERE id = $3`,
		status, companies, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to complete run: run %s not found", runID)
	}
	return nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, tool_version, git_sha, status, companies, created_at, completed_at
		 FROM runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.ToolVersion, &run.GitSHA, &run.Status, &run.Companies, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, tool_version, git_sha, status, companies, created_at, completed_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ToolVersion, &run.GitSHA, &run.Status, &run.Companies, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
