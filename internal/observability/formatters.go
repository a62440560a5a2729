// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/hiring-signal/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		pad := boxWidth - 4 - utf8.RuneCountInString(line)
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", pad))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCompany outputs a human-readable summary of one company's result.
func (p *Printer) PrintCompany(rec *types.CompanyReport) {
	if rec == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s (%s)\n", rec.Name, rec.BusinessID))
	if rec.Website.URL != "" {
		sb.WriteString(fmt.Sprintf("Website:  %s [%s]\n", rec.Website.URL, rec.Website.Source))
	}
	sb.WriteString(fmt.Sprintf("Crawl:    %s, %d page(s)\n", rec.CrawlStatus, len(rec.CheckedURLs)))
	sb.WriteString(fmt.Sprintf("Signal:   %s (%.2f)", rec.Signal, rec.Confidence))
	if rec.LLMUsed {
		sb.WriteString(" via fallback")
	}
	sb.WriteString("\n")

	if len(rec.Evidence) > 0 {
		sb.WriteString("\nEvidence:\n")
		count := min(len(rec.Evidence), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", rec.Evidence[i].Snippet))
		}
		if len(rec.Evidence) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(rec.Evidence)-maxItemsToShow))
		}
	}

	reasons := append(append([]string{}, rec.SkippedReasons...), rec.Errors...)
	if len(reasons) > 0 {
		sb.WriteString("\nReasons:\n")
		for _, r := range reasons {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", r))
		}
	}

	if j := rec.Jobs; j != nil {
		sb.WriteString(fmt.Sprintf("\nJobs:     %d listed, +%d / -%d\n", j.Listings, j.New, j.Removed))
	}

	p.printBox("COMPANY RESULT", sb.String())
}

// PrintRunSummary outputs signal and status counts for a whole run.
func (p *Printer) PrintRunSummary(report *types.Report, elapsed time.Duration) {
	if report == nil {
		return
	}

	signals := map[types.Signal]int{}
	statuses := map[string]int{}
	reasons := map[string]int{}
	llm := 0
	for _, rec := range report.Records {
		signals[rec.Signal]++
		statuses[string(rec.CrawlStatus)]++
		for _, r := range rec.SkippedReasons {
			reasons[r]++
		}
		if rec.LLMUsed {
			llm++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:        %s\n", report.Provenance.RunID))
	sb.WriteString(fmt.Sprintf("Companies:  %d in %s\n", len(report.Records), elapsed.Round(time.Second)))
	sb.WriteString(fmt.Sprintf("Signals:    yes %d, no %d, unclear %d\n",
		signals[types.SignalYes], signals[types.SignalNo], signals[types.SignalUnclear]))
	sb.WriteString(fmt.Sprintf("Fallback:   %d\n", llm))

	sb.WriteString("\nCrawl status:\n")
	for _, k := range sortedKeys(statuses) {
		sb.WriteString(fmt.Sprintf("  %-16s %d\n", k, statuses[k]))
	}

	if len(reasons) > 0 {
		sb.WriteString("\nSkipped:\n")
		for _, k := range sortedKeys(reasons) {
			sb.WriteString(fmt.Sprintf("  %-16s %d\n", k, reasons[k]))
		}
	}

	p.printBox("RUN SUMMARY", sb.String())
}

// PrintDiff outputs the new and removed listings of one company.
func (p *Printer) PrintDiff(businessID string, d *types.DiffResult) {
	if d == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:    %s\n", businessID))
	sb.WriteString(fmt.Sprintf("Unchanged:  %d\n", d.UnchangedCount))

	writeListings := func(label string, listings []types.JobListing) {
		sb.WriteString(fmt.Sprintf("\n%s (%d):\n", label, len(listings)))
		count := min(len(listings), maxItemsToShow)
		for i := 0; i < count; i++ {
			l := listings[i]
			if l.Location != "" {
				sb.WriteString(fmt.Sprintf("  • %s, %s\n", l.Title, l.Location))
			} else {
				sb.WriteString(fmt.Sprintf("  • %s\n", l.Title))
			}
		}
		if len(listings) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(listings)-maxItemsToShow))
		}
	}
	writeListings("New", d.New)
	writeListings("Removed", d.Removed)

	p.printBox("JOB DIFF", sb.String())
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
