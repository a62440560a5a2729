package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hiring-signal/internal/types"
)

// Load returns the stored job snapshot for businessID, or nil if none exists.
func (db *DB) Load(ctx context.Context, businessID string) (*types.Snapshot, error) {
	var (
		snap     types.Snapshot
		listings []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT business_id, run_id, listings FROM job_snapshots WHERE business_id = $1`,
		businessID,
	).Scan(&snap.BusinessID, &snap.RunID, &listings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", businessID, err)
	}
	if err := json.Unmarshal(listings, &snap.Listings); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", businessID, err)
	}
	return &snap, nil
}

// Save upserts the job snapshot for snap.BusinessID.
func (db *DB) Save(ctx context.Context, snap types.Snapshot) error {
	if snap.Listings == nil {
		snap.Listings = []types.JobListing{}
	}
	listings, err := json.Marshal(snap.Listings)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO job_snapshots (business_id, run_id, listings)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (business_id) DO UPDATE SET run_id = $2, listings = $3, updated_at = NOW()`,
		snap.BusinessID, snap.RunID, listings,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.BusinessID, err)
	}
	return nil
}
