package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-signal/internal/db"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, or show the results of one run",
	Long: `Reads the runs persisted in PostgreSQL by scan. Without --id the most recent runs are listed;
with --id the run and its per-company results are shown.`,
	RunE: runRuns,
}

var (
	runsDatabaseURL string
	runsID          string
	runsLimit       int
)

func init() {
	runsCmd.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runsCmd.Flags().StringVar(&runsID, "id", "", "Run ID to show")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to list")

	rootCmd.AddCommand(runsCmd)
}

// databaseURLFrom returns the flag value or DATABASE_URL.
func databaseURLFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("database URL is required (set DATABASE_URL environment variable or use --db-url flag)")
}

func runRuns(cmd *cobra.Command, _ []string) error {
	databaseURL, err := databaseURLFrom(runsDatabaseURL)
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if runsID == "" {
		runs, err := database.ListRuns(ctx, runsLimit)
		if err != nil {
			return err
		}
		return printRuns(cmd.OutOrStdout(), runs)
	}

	run, err := database.GetRun(ctx, runsID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runsID)
	}
	results, err := database.ListCompanyResults(ctx, runsID)
	if err != nil {
		return err
	}
	return printRunResults(cmd.OutOrStdout(), run, results)
}

func printRuns(w io.Writer, runs []db.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN ID\tSTATUS\tCOMPANIES\tVERSION\tSTARTED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.ID, r.Status, r.Companies, r.ToolVersion, r.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func printRunResults(w io.Writer, run *db.Run, results []db.CompanyResult) error {
	completed := "-"
	if run.CompletedAt != nil {
		completed = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, _ = fmt.Fprintf(w, "Run %s (%s, git %s)\nStatus: %s, companies: %d, completed: %s\n\n",
		run.ID, run.ToolVersion, run.GitSHA, run.Status, run.Companies, completed)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUSINESS ID\tDOMAIN\tSIGNAL\tCONFIDENCE\tCRAWL")
	for _, r := range results {
		domain := "-"
		if r.Domain != nil {
			domain = *r.Domain
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", r.BusinessID, domain, r.Signal, r.Confidence, r.CrawlStatus)
	}
	return tw.Flush()
}
