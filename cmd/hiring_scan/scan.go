package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/hiring-signal/internal/config"
	"github.com/jonathan/hiring-signal/internal/ingestion"
	"github.com/jonathan/hiring-signal/internal/logging"
	"github.com/jonathan/hiring-signal/internal/observability"
	"github.com/jonathan/hiring-signal/internal/pipeline"
	"github.com/jonathan/hiring-signal/internal/report"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan companies for hiring signals and write the report",
	Long: `Resolves a website for every company in the input, fetches its homepage and at most one careers page
while honoring robots directives, and classifies the hiring signal from the fetched text.

Configuration can be loaded from a JSON or YAML file using --config. Command-line flags override config file values.`,
	RunE: runScan,
}

var (
	scanConfigPath    string
	scanInput         string
	scanOutput        string
	scanFormat        string
	scanDossierDir    string
	scanWorkers       int
	scanMaxCompanies  int
	scanRunDeadline   time.Duration
	scanMaxDomains    int
	scanRobotsMode    string
	scanAllowInferred bool
	scanDomainMap     string
	scanSnapshots     string
	scanSnapshotDir   string
	scanUseBrowser    bool
	scanInference     bool
	scanProvider      string
	scanModel         string
	scanDeterministic bool
	scanDatabaseURL   string
	scanLogLevel      string
	scanVerbose       bool
)

func init() {
	// Config file flag (processed first)
	scanCmd.Flags().StringVar(&scanConfigPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")

	scanCmd.Flags().StringVarP(&scanInput, "input", "i", "", "Path to the company input file (.jsonl or .csv)")
	scanCmd.Flags().StringVarP(&scanOutput, "out", "o", "", "Path to the report file (default stdout)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "", "Report format: jsonl or csv")
	scanCmd.Flags().StringVar(&scanDossierDir, "dossier-dir", "", "Directory for per-company Markdown dossiers")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "Number of companies processed concurrently (1-8)")
	scanCmd.Flags().IntVar(&scanMaxCompanies, "max-companies", 0, "Process at most this many companies (0 = all)")
	scanCmd.Flags().DurationVar(&scanRunDeadline, "run-deadline", 0, "Stop starting new companies after this long (0 = none)")
	scanCmd.Flags().IntVar(&scanMaxDomains, "max-domains", 0, "Maximum distinct domains contacted in the run (0 = unlimited)")
	scanCmd.Flags().StringVar(&scanRobotsMode, "robots-mode", "", "Robots handling: strict or allowlist")
	scanCmd.Flags().BoolVar(&scanAllowInferred, "allow-inferred", false, "Allow websites found by lookup when no website is supplied")
	scanCmd.Flags().StringVar(&scanDomainMap, "domain-map", "", "CSV of business_id,domain used for website lookup")
	scanCmd.Flags().StringVar(&scanSnapshots, "snapshots", "", "Job snapshot backend: none, file, postgres or mongo")
	scanCmd.Flags().StringVar(&scanSnapshotDir, "snapshot-dir", "", "Directory for file snapshots")
	scanCmd.Flags().BoolVar(&scanUseBrowser, "use-browser", false, "Render near-empty pages with a headless browser (requires Chrome)")
	scanCmd.Flags().BoolVar(&scanInference, "inference", false, "Enable the fallback model for ambiguous companies")
	scanCmd.Flags().StringVar(&scanProvider, "provider", "", "Fallback model provider: ollama or gemini")
	scanCmd.Flags().StringVar(&scanModel, "model", "", "Fallback model name")
	scanCmd.Flags().BoolVar(&scanDeterministic, "deterministic", false, "Force temperature 0 for the fallback model")
	scanCmd.Flags().StringVar(&scanDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	scanCmd.Flags().StringVar(&scanLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "Print a summary box per company")

	rootCmd.AddCommand(scanCmd)
}

// applyScanFlags copies explicitly set flags onto cfg.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Path = scanOutput
	}
	if flags.Changed("format") {
		cfg.Output.Format = scanFormat
	}
	if flags.Changed("dossier-dir") {
		cfg.Output.DossierDir = scanDossierDir
	}
	if flags.Changed("verbose") {
		cfg.Output.Verbose = scanVerbose
	}
	if flags.Changed("workers") {
		cfg.Workers = scanWorkers
	}
	if flags.Changed("max-companies") {
		cfg.MaxCompanies = scanMaxCompanies
	}
	if flags.Changed("run-deadline") {
		cfg.RunDeadline = config.Duration(scanRunDeadline)
	}
	if flags.Changed("max-domains") {
		cfg.Budgets.MaxDomains = scanMaxDomains
	}
	if flags.Changed("robots-mode") {
		cfg.Robots.Mode = scanRobotsMode
	}
	if flags.Changed("allow-inferred") {
		cfg.Resolver.AllowInferred = scanAllowInferred
	}
	if flags.Changed("domain-map") {
		cfg.Resolver.DomainMap = scanDomainMap
	}
	if flags.Changed("snapshots") {
		cfg.Snapshots.Backend = scanSnapshots
	}
	if flags.Changed("snapshot-dir") {
		cfg.Snapshots.Dir = scanSnapshotDir
	}
	if flags.Changed("use-browser") {
		cfg.Crawl.UseBrowser = scanUseBrowser
	}
	if flags.Changed("inference") {
		cfg.Inference.Enabled = scanInference
	}
	if flags.Changed("provider") {
		cfg.Inference.Provider = scanProvider
	}
	if flags.Changed("model") {
		cfg.Inference.Model = scanModel
	}
	if flags.Changed("deterministic") {
		cfg.Inference.Deterministic = scanDeterministic
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = scanDatabaseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = scanLogLevel
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(scanConfigPath)
	if err != nil {
		return err
	}
	applyScanFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if scanInput == "" {
		return fmt.Errorf("--input is required")
	}

	log := logging.New(cfg.LogLevel, os.Stderr)

	companies, err := ingestion.LoadCompanies(scanInput, log)
	if err != nil {
		return fmt.Errorf("failed to load companies: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var onProgress pipeline.ProgressCallback
	if cfg.Output.Verbose {
		onProgress = func(e pipeline.ProgressEvent) {
			_, _ = fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", e.Index, e.Total, e.Message)
		}
	}

	st, err := buildStack(ctx, cfg, log, onProgress)
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := st.coordinator.Run(ctx, companies)
	if err != nil {
		return err
	}

	toStdout := cfg.Output.Path == "" || cfg.Output.Path == "-"
	if toStdout {
		if err := report.Write(cmd.OutOrStdout(), cfg.Output.Format, out.Report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	} else {
		if err := report.WriteFile(cfg.Output.Path, cfg.Output.Format, out.Report); err != nil {
			return err
		}
		log.Info("report written", "path", cfg.Output.Path, "format", cfg.Output.Format)
	}

	if cfg.Output.DossierDir != "" {
		if err := report.WriteDossiers(cfg.Output.DossierDir, out.Report); err != nil {
			return err
		}
	}

	if cfg.Output.Verbose {
		var w io.Writer = cmd.OutOrStdout()
		if toStdout {
			w = cmd.ErrOrStderr()
		}
		printVerbose(observability.NewPrinter(w), out)
	}
	return nil
}

func printVerbose(printer *observability.Printer, out *pipeline.RunOutput) {
	for i := range out.Report.Records {
		rec := &out.Report.Records[i]
		printer.PrintCompany(rec)
		if d, ok := out.Diffs[rec.BusinessID]; ok {
			printer.PrintDiff(rec.BusinessID, d)
		}
	}
	printer.PrintRunSummary(out.Report, out.Elapsed)
}
