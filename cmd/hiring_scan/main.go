// Package main provides the hiring_scan CLI, which checks company websites
// for evidence of active hiring.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hiring_scan",
	Short: "Evidence-gated hiring signal scanner",
	Long: `hiring_scan resolves each company's website, politely fetches its homepage and one careers page,
and emits a yes/no/unclear hiring verdict backed by literal evidence snippets.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
