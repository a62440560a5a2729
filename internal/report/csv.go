package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonathan/hiring-signal/internal/types"
)

// CSVHeader lists the flat CSV columns. Provenance fields repeat on every row.
var CSVHeader = []string{
	"run_id", "business_id", "name", "website_url", "website_source",
	"crawl_status", "checked_urls", "ats_platform", "signal", "confidence",
	"signal_url", "evidence_count", "evidence", "llm_used", "errors",
	"skipped_reasons", "inference_provider", "inference_model", "temperature",
	"prompt_version", "deterministic", "jobs_listings", "jobs_new", "jobs_removed",
	"jobs_unchanged", "tool_version", "git_sha", "crawl_ts",
}

// WriteCSV writes one row per company.
func WriteCSV(w io.Writer, r *types.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range r.Records {
		if err := cw.Write(csvRow(&r.Records[i], &r.Provenance)); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", r.Records[i].BusinessID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func csvRow(rec *types.CompanyReport, p *types.RunProvenance) []string {
	evidence := make([]string, 0, len(rec.Evidence))
	for _, e := range rec.Evidence {
		evidence = append(evidence, e.Snippet+" <"+e.URL+">")
	}

	jobs := []string{"", "", "", ""}
	if rec.Jobs != nil {
		jobs = []string{
			strconv.Itoa(rec.Jobs.Listings),
			strconv.Itoa(rec.Jobs.New),
			strconv.Itoa(rec.Jobs.Removed),
			strconv.Itoa(rec.Jobs.Unchanged),
		}
	}

	row := []string{
		rec.RunID,
		rec.BusinessID,
		rec.Name,
		rec.Website.URL,
		string(rec.Website.Source),
		string(rec.CrawlStatus),
		strings.Join(rec.CheckedURLs, ";"),
		rec.ATSPlatform,
		string(rec.Signal),
		strconv.FormatFloat(rec.Confidence, 'f', 2, 64),
		rec.SignalURL,
		strconv.Itoa(len(rec.Evidence)),
		strings.Join(evidence, " | "),
		strconv.FormatBool(rec.LLMUsed),
		strings.Join(rec.Errors, ";"),
		strings.Join(rec.SkippedReasons, ";"),
		rec.Inference.Provider,
		rec.Inference.Model,
		strconv.FormatFloat(rec.Inference.Temperature, 'f', -1, 64),
		rec.Inference.PromptVersion,
		strconv.FormatBool(rec.Inference.Deterministic),
	}
	row = append(row, jobs...)
	return append(row, p.ToolVersion, p.GitSHA, p.CrawlTS)
}
