package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-signal/internal/db"
	"github.com/jonathan/hiring-signal/internal/fetch"
)

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Record a reviewed website domain for a company",
	Long: `Stores a business_id to domain mapping in the company_domains table. Scans with
resolver.use_database and --allow-inferred use it for companies without a website.`,
	RunE: runDomain,
}

var (
	domainDatabaseURL string
	domainBusinessID  string
	domainValue       string
)

func init() {
	domainCmd.Flags().StringVar(&domainDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	domainCmd.Flags().StringVar(&domainBusinessID, "business-id", "", "Company business ID (required)")
	domainCmd.Flags().StringVar(&domainValue, "domain", "", "Reviewed domain or website URL (required)")

	_ = domainCmd.MarkFlagRequired("business-id")
	_ = domainCmd.MarkFlagRequired("domain")

	rootCmd.AddCommand(domainCmd)
}

func runDomain(cmd *cobra.Command, _ []string) error {
	site, ok := fetch.NormalizeURL(domainValue)
	if !ok {
		return fmt.Errorf("invalid domain %q", domainValue)
	}
	domain := fetch.SiteDomain(site)

	databaseURL, err := databaseURLFrom(domainDatabaseURL)
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.UpsertCompanyDomain(ctx, domainBusinessID, domain); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", domainBusinessID, domain)
	return nil
}
