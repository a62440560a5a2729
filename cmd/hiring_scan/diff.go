package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-signal/internal/jobs"
	"github.com/jonathan/hiring-signal/internal/observability"
	"github.com/jonathan/hiring-signal/internal/snapshot"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two job snapshot files",
	Long:  "Compares the job listings of two snapshot JSON files by fingerprint and prints new, removed and unchanged counts.",
	RunE:  runDiff,
}

var (
	diffPrevious string
	diffCurrent  string
	diffJSON     bool
)

func init() {
	diffCmd.Flags().StringVar(&diffPrevious, "previous", "", "Path to the earlier snapshot JSON file")
	diffCmd.Flags().StringVar(&diffCurrent, "current", "", "Path to the later snapshot JSON file")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Print the diff as JSON")

	_ = diffCmd.MarkFlagRequired("previous")
	_ = diffCmd.MarkFlagRequired("current")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, _ []string) error {
	prev, err := snapshot.ReadFile(diffPrevious)
	if err != nil {
		return err
	}
	curr, err := snapshot.ReadFile(diffCurrent)
	if err != nil {
		return err
	}
	if prev.BusinessID != "" && curr.BusinessID != "" && prev.BusinessID != curr.BusinessID {
		return fmt.Errorf("snapshots belong to different companies: %s and %s", prev.BusinessID, curr.BusinessID)
	}

	d := jobs.Diff(prev.Listings, curr.Listings)

	if diffJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintDiff(curr.BusinessID, &d)
	return nil
}
