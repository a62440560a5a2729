package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-signal/internal/ingestion"
	"github.com/jonathan/hiring-signal/internal/logging"
	"github.com/jonathan/hiring-signal/internal/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the website resolved for each company without fetching anything",
	RunE:  runResolve,
}

var (
	resolveConfigPath    string
	resolveInput         string
	resolveAllowInferred bool
	resolveDomainMap     string
)

func init() {
	resolveCmd.Flags().StringVar(&resolveConfigPath, "config", "", "Path to a JSON or YAML config file")
	resolveCmd.Flags().StringVarP(&resolveInput, "input", "i", "", "Path to the company input file (.jsonl or .csv)")
	resolveCmd.Flags().BoolVar(&resolveAllowInferred, "allow-inferred", false, "Allow websites found by lookup")
	resolveCmd.Flags().StringVar(&resolveDomainMap, "domain-map", "", "CSV of business_id,domain used for website lookup")

	_ = resolveCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(resolveCmd)
}

type resolvedLine struct {
	BusinessID string                `json:"business_id"`
	Name       string                `json:"name"`
	Website    types.ResolvedWebsite `json:"website"`
}

func runResolve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(resolveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("allow-inferred") {
		cfg.Resolver.AllowInferred = resolveAllowInferred
	}
	if cmd.Flags().Changed("domain-map") {
		cfg.Resolver.DomainMap = resolveDomainMap
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, os.Stderr)
	companies, err := ingestion.LoadCompanies(resolveInput, log)
	if err != nil {
		return fmt.Errorf("failed to load companies: %w", err)
	}

	ctx := context.Background()
	resolver, database, err := buildResolver(ctx, cfg, log)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	for _, c := range companies {
		line := resolvedLine{BusinessID: c.BusinessID, Name: c.Name, Website: resolver.Resolve(ctx, c)}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to write resolution: %w", err)
		}
	}
	return nil
}
