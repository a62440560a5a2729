package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/hiring-signal/internal/types"
)

// Lookup returns the reviewed domain for a company, or an empty string.
// It lets the database serve as a resolver lookup source.
func (db *DB) Lookup(ctx context.Context, company types.CompanyRecord) (string, error) {
	var domain string
	err := db.pool.QueryRow(ctx,
		`SELECT domain FROM company_domains WHERE business_id = $1`,
		company.BusinessID,
	).Scan(&domain)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up company domain: %w", err)
	}
	return domain, nil
}

// Name identifies the database as a lookup source.
func (db *DB) Name() string {
	return "company_domains"
}

// UpsertCompanyDomain records a reviewed domain for a company.
func (db *DB) UpsertCompanyDomain(ctx context.Context, businessID, domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if businessID == "" || domain == "" {
		return fmt.Errorf("business id and domain are required")
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO company_domains (business_id, domain)
		 VALUES ($1, $2)
		 ON CONFLICT (business_id) DO UPDATE SET domain = $2`,
		businessID, domain,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert company domain: %w", err)
	}
	return nil
}
