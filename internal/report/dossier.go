package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jonathan/hiring-signal/internal/types"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// RenderDossier renders a Markdown summary of one company's result.
func RenderDossier(rec types.CompanyReport, p types.RunProvenance) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n", rec.Name)
	fmt.Fprintf(&sb, "Business ID: `%s`\n", rec.BusinessID)
	if rec.Website.URL != "" {
		fmt.Fprintf(&sb, "Website: [%s](%s) (%s)\n", rec.Website.URL, rec.Website.URL, rec.Website.Source)
	} else {
		sb.WriteString("Website: unknown\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "**Decision:** %s (confidence %.2f)\n\n", strings.ToUpper(string(rec.Signal)), rec.Confidence)

	sb.WriteString("## Why\n")
	for _, line := range why(rec) {
		fmt.Fprintf(&sb, "- %s\n", line)
	}
	sb.WriteString("\n")

	sb.WriteString("## Evidence\n")
	if len(rec.Evidence) == 0 {
		sb.WriteString("- No evidence captured.\n")
	}
	for _, e := range rec.Evidence {
		fmt.Fprintf(&sb, "- \"%s\" (%s)\n", e.Snippet, e.URL)
	}
	sb.WriteString("\n")

	sb.WriteString("## Unknowns & Caveats\n")
	var caveats []string
	for _, s := range rec.SkippedReasons {
		caveats = append(caveats, "Skipped: "+s)
	}
	for _, e := range rec.Errors {
		caveats = append(caveats, "Error: "+e)
	}
	if rec.Website.Notes != "" {
		caveats = append(caveats, "Resolver: "+rec.Website.Notes)
	}
	if len(caveats) == 0 {
		caveats = []string{"No major caveats recorded."}
	}
	for _, c := range caveats {
		fmt.Fprintf(&sb, "- %s\n", c)
	}
	sb.WriteString("\n")

	sb.WriteString("## Provenance\n")
	fmt.Fprintf(&sb, "- run_id: %s\n", p.RunID)
	fmt.Fprintf(&sb, "- version: %s\n", p.ToolVersion)
	fmt.Fprintf(&sb, "- timestamp: %s\n", p.CrawlTS)
	fmt.Fprintf(&sb, "- git_sha: %s\n", p.GitSHA)
	if rec.Inference.Provider != "none" && rec.Inference.Provider != "" {
		fmt.Fprintf(&sb, "- model: %s/%s (temperature %g, prompt %s)\n",
			rec.Inference.Provider, rec.Inference.Model, rec.Inference.Temperature, rec.Inference.PromptVersion)
	}

	return sb.String()
}

func why(rec types.CompanyReport) []string {
	var lines []string
	switch {
	case rec.Signal.Committed():
		lines = append(lines, fmt.Sprintf("%d literal excerpts from the company's own pages support the verdict.", len(rec.Evidence)))
		if rec.SignalURL != "" {
			lines = append(lines, "Strongest signal on "+rec.SignalURL+".")
		}
	case rec.CrawlStatus != types.CrawlOK:
		lines = append(lines, fmt.Sprintf("The website was not usable (%s).", rec.CrawlStatus))
	default:
		lines = append(lines, "No strong deterministic signals found.")
	}
	if rec.LLMUsed {
		lines = append(lines, "The fallback model was consulted and its citations were checked against page text.")
	}
	if rec.ATSPlatform != "" {
		lines = append(lines, "Careers are hosted on "+rec.ATSPlatform+".")
	}
	if j := rec.Jobs; j != nil {
		if j.HasPrior {
			lines = append(lines, fmt.Sprintf("%d listings: %d new, %d removed since the previous run.", j.Listings, j.New, j.Removed))
		} else {
			lines = append(lines, fmt.Sprintf("%d listings seen; no previous snapshot.", j.Listings))
		}
	}
	return lines
}

// WriteDossiers writes one Markdown file per company into dir.
func WriteDossiers(dir string, r *types.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dossier directory: %w", err)
	}
	for _, rec := range r.Records {
		name := unsafeFileChars.ReplaceAllString(rec.BusinessID, "_") + ".md"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(RenderDossier(rec, r.Provenance)), 0o644); err != nil {
			return fmt.Errorf("failed to write dossier %s: %w", rec.BusinessID, err)
		}
	}
	return nil
}
