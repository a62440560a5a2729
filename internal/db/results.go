package db

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/jonathan/hiring-signal/internal/fetch"
	"github.com/jonathan/hiring-signal/internal/types"
)

// SaveCompanyResult stores one output record. Re-saving the same company
// for the same run replaces the earlier row.
func (db *DB) SaveCompanyResult(ctx context.Context, rec types.CompanyReport) error {
	rec.Website = storedWebsite(rec.Website)
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal company result: %w", err)
	}

	var domain *string
	if d := fetch.SiteDomain(rec.Website.URL); d != "" {
		domain = &d
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO company_results (id, run_id, business_id, domain, signal, confidence, crawl_status, record)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (run_id, business_id) DO UPDATE SET
		   domain = $4, signal = $5, confidence = $6, crawl_status = $7, record = $8, created_at = NOW()`,
		uuid.New(), rec.RunID, rec.BusinessID, domain, string(rec.Signal), rec.Confidence, string(rec.CrawlStatus), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save company result %s: %w", rec.BusinessID, err)
	}
	return nil
}

// ListCompanyResults returns the stored records of a run in insertion order.
func (db *DB) ListCompanyResults(ctx context.Context, runID string) ([]CompanyResult, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, business_id, domain, signal, confidence, crawl_status, record, created_at
		 FROM company_results WHERE run_id = $1 ORDER BY created_at, business_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list company results: %w", err)
	}
	defer rows.Close()

	var results []CompanyResult
	for rows.Next() {
		var r CompanyResult
		if err := rows.Scan(&r.ID, &r.RunID, &r.BusinessID, &r.Domain, &r.Signal, &r.Confidence, &r.CrawlStatus, &r.Record, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// storedWebsite keeps only the origin of a places-sourced website. The full
// URL from the location service is not retained.
func storedWebsite(w types.ResolvedWebsite) types.ResolvedWebsite {
	if w.Source != types.SourcePlaces || w.URL == "" {
		return w
	}
	u, err := url.Parse(w.URL)
	if err != nil || u.Host == "" {
		return w
	}
	w.URL = (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
	return w
}
