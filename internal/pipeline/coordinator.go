// Package pipeline coordinates resolution, crawling, classification and job
// diffing for a batch of companies.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/hiring-signal/internal/classify"
	"github.com/jonathan/hiring-signal/internal/crawling"
	"github.com/jonathan/hiring-signal/internal/db"
	"github.com/jonathan/hiring-signal/internal/fetch"
	"github.com/jonathan/hiring-signal/internal/jobs"
	"github.com/jonathan/hiring-signal/internal/logging"
	"github.com/jonathan/hiring-signal/internal/ratelimit"
	"github.com/jonathan/hiring-signal/internal/resolve"
	"github.com/jonathan/hiring-signal/internal/schemas"
	"github.com/jonathan/hiring-signal/internal/types"
)

// DefaultWorkers is the worker pool size when none is configured.
const DefaultWorkers = 2

// SnapshotStore persists the job listings seen for a company between runs.
// Load returns nil, nil when no prior snapshot exists.
type SnapshotStore interface {
	Load(ctx context.Context, businessID string) (*types.Snapshot, error)
	Save(ctx context.Context, snap types.Snapshot) error
}

// ResultStore persists a validated run.
type ResultStore interface {
	CreateRun(ctx context.Context, p types.RunProvenance) error
	SaveCompanyResult(ctx context.Context, rec types.CompanyReport) error
	CompleteRun(ctx context.Context, runID, status string, companies int) error
}

// ProgressEvent reports that one company has been processed.
type ProgressEvent struct {
	Index      int    `json:"index"`
	Total      int    `json:"total"`
	BusinessID string `json:"business_id"`
	Signal     string `json:"signal"`
	Message    string `json:"message"`
}

// ProgressCallback is called once per company. Calls are serialized.
type ProgressCallback func(event ProgressEvent)

// Options holds the run-level settings of a Coordinator.
type Options struct {
	Workers      int
	MaxCompanies int
	RunDeadline  time.Duration
	OutputFormat string
	ToolVersion  string
	GitSHA       string
	OnProgress   ProgressCallback
}

// RunOutput is the result of a successful run.
type RunOutput struct {
	Report  *types.Report
	Diffs   map[string]*types.DiffResult
	Elapsed time.Duration
}

// Coordinator drives the per-company pipeline over a worker pool.
type Coordinator struct {
	opts       Options
	resolver   *resolve.Resolver
	crawler    *crawling.Crawler
	classifier *classify.Classifier
	budget     *ratelimit.Budget
	snapshots  SnapshotStore
	results    ResultStore
	clock      ratelimit.Clock
	log        *slog.Logger

	progressMu sync.Mutex
}

// New creates a Coordinator. The budget must be the one shared with the crawler.
func New(opts Options, resolver *resolve.Resolver, crawler *crawling.Crawler, classifier *classify.Classifier, budget *ratelimit.Budget, log *slog.Logger) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if budget == nil {
		budget = ratelimit.NewBudget(0, 0)
	}
	return &Coordinator{
		opts:       opts,
		resolver:   resolver,
		crawler:    crawler,
		classifier: classifier,
		budget:     budget,
		clock:      ratelimit.RealClock(),
		log:        logging.OrDiscard(log),
	}
}

// WithSnapshots enables job diffing against store.
func (c *Coordinator) WithSnapshots(store SnapshotStore) *Coordinator {
	c.snapshots = store
	return c
}

// WithResults enables persistence of validated runs.
func (c *Coordinator) WithResults(store ResultStore) *Coordinator {
	c.results = store
	return c
}

// WithClock replaces the clock used for run timestamps and the deadline.
func (c *Coordinator) WithClock(clock ratelimit.Clock) *Coordinator {
	c.clock = clock
	return c
}

// Run processes companies and returns the validated report. Per-company
// failures are recorded on the company's record; only a report that fails
// schema validation returns an error.
func (c *Coordinator) Run(ctx context.Context, companies []types.CompanyRecord) (*RunOutput, error) {
	start := c.clock.Now()
	runID := NewRunID(start)
	var deadline time.Time
	if c.opts.RunDeadline > 0 {
		deadline = start.Add(c.opts.RunDeadline)
	}

	c.log.Info("run started", "run_id", runID, "companies", len(companies), "workers", c.opts.Workers)

	records := make([]types.CompanyReport, len(companies))
	diffs := make([]*types.DiffResult, len(companies))
	var done int

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)

	for i, company := range companies {
		if c.opts.MaxCompanies > 0 && i >= c.opts.MaxCompanies {
			records[i] = c.skipped(runID, company, unresolved(), types.ReasonCompanyBudget)
			c.progress(&done, len(companies), records[i])
			continue
		}
		i, company := i, company
		g.Go(func() error {
			records[i], diffs[i] = c.process(ctx, runID, company, deadline)
			c.progress(&done, len(companies), records[i])
			return nil
		})
	}
	_ = g.Wait()

	report := &types.Report{
		Records:    records,
		Provenance: newProvenance(runID, start, len(records), c.opts.OutputFormat, c.opts.ToolVersion, c.opts.GitSHA),
	}
	if err := schemas.ValidateReport(report); err != nil {
		return nil, fmt.Errorf("report for run %s failed schema validation: %w", runID, err)
	}

	if c.results != nil {
		c.persist(ctx, report)
	}

	out := &RunOutput{
		Report:  report,
		Diffs:   make(map[string]*types.DiffResult),
		Elapsed: c.clock.Now().Sub(start),
	}
	for i, d := range diffs {
		if d != nil {
			out.Diffs[records[i].BusinessID] = d
		}
	}

	c.log.Info("run finished", "run_id", runID, "elapsed", out.Elapsed)
	return out, nil
}

func (c *Coordinator) process(ctx context.Context, runID string, company types.CompanyRecord, deadline time.Time) (types.CompanyReport, *types.DiffResult) {
	if ctx.Err() != nil || (!deadline.IsZero() && !c.clock.Now().Before(deadline)) {
		return c.skipped(runID, company, unresolved(), types.ReasonRunDeadline), nil
	}

	site := c.resolver.Resolve(ctx, company)
	if err := site.Err(); err != nil {
		c.log.Info("company skipped", "business_id", company.BusinessID, "reason", types.ReasonNoWebsite, "error", err)
		return c.skipped(runID, company, site, types.ReasonNoWebsite), nil
	}

	domain := fetch.SiteDomain(site.URL)
	if reason := c.budget.AdmitDomain(domain); reason != "" {
		c.log.Info("company skipped", "business_id", company.BusinessID, "domain", domain, "reason", reason)
		return c.skipped(runID, company, site, reason), nil
	}

	crawl := c.crawler.Crawl(ctx, site.URL)
	result := c.classifier.Classify(ctx, crawl, site.Source)

	rec := c.record(runID, company)
	rec.Website = site
	rec.CrawlStatus = crawl.Status
	rec.CheckedURLs = crawl.CheckedURLs()
	rec.ATSPlatform = crawl.ATSPlatform
	rec.Signal = result.Signal
	rec.Confidence = result.Confidence
	rec.Evidence = result.Evidence
	rec.SignalURL = result.SignalURL
	rec.LLMUsed = result.LLMUsed
	rec.Errors = merge(result.Errors, crawl.Errors)
	rec.SkippedReasons = merge(result.SkippedReasons, crawl.SkippedReasons)

	if err := result.Check(); err != nil {
		c.log.Error("classification invariant violated", "business_id", company.BusinessID, "error", err)
	}

	var diff *types.DiffResult
	if crawl.Status == types.CrawlOK {
		rec.Jobs, diff = c.jobs(ctx, runID, company.BusinessID, crawl, &rec.Errors)
	}

	normalize(&rec)
	c.log.Info("company classified",
		"business_id", company.BusinessID,
		"status", rec.CrawlStatus,
		"signal", rec.Signal,
		"confidence", rec.Confidence)
	return rec, diff
}

// jobs extracts listings from the careers page, or the homepage when no
// careers page was fetched, and diffs them against the stored snapshot.
func (c *Coordinator) jobs(ctx context.Context, runID, businessID string, crawl types.CrawlResult, errs *[]string) (*types.JobsSummary, *types.DiffResult) {
	page := crawl.Page(types.PageCareers)
	if page == nil {
		page = crawl.Page(types.PageHomepage)
	}
	if page == nil {
		return nil, nil
	}
	listings := jobs.ExtractListings(*page)

	if c.snapshots == nil {
		if len(listings) == 0 {
			return nil, nil
		}
		return jobs.Summary(listings, jobs.Diff(nil, listings), false), nil
	}

	prev, err := c.snapshots.Load(ctx, businessID)
	if err != nil {
		c.log.Warn("snapshot load failed", "business_id", businessID, "error", err)
		*errs = append(*errs, "snapshot_load: "+err.Error())
		prev = nil
	}

	var previous []types.JobListing
	if prev != nil {
		previous = prev.Listings
	}
	d := jobs.Diff(previous, listings)

	if err := c.snapshots.Save(ctx, types.Snapshot{BusinessID: businessID, RunID: runID, Listings: listings}); err != nil {
		c.log.Warn("snapshot save failed", "business_id", businessID, "error", err)
		*errs = append(*errs, "snapshot_save: "+err.Error())
	}

	var diff *types.DiffResult
	if prev != nil {
		diff = &d
	}
	return jobs.Summary(listings, d, prev != nil), diff
}

func (c *Coordinator) persist(ctx context.Context, report *types.Report) {
	prov := report.Provenance
	if err := c.results.CreateRun(ctx, prov); err != nil {
		c.log.Warn("run not persisted", "run_id", prov.RunID, "error", err)
		return
	}

	status := db.RunStatusCompleted
	for _, rec := range report.Records {
		if err := c.results.SaveCompanyResult(ctx, rec); err != nil {
			c.log.Warn("company result not persisted", "run_id", prov.RunID, "business_id", rec.BusinessID, "error", err)
			status = db.RunStatusFailed
		}
	}
	if err := c.results.CompleteRun(ctx, prov.RunID, status, len(report.Records)); err != nil {
		c.log.Warn("run completion not persisted", "run_id", prov.RunID, "error", err)
	}
}

func (c *Coordinator) progress(done *int, total int, rec types.CompanyReport) {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	*done++
	if c.opts.OnProgress == nil {
		return
	}
	c.opts.OnProgress(ProgressEvent{
		Index:      *done,
		Total:      total,
		BusinessID: rec.BusinessID,
		Signal:     string(rec.Signal),
		Message:    fmt.Sprintf("%s: %s (%s)", rec.Name, rec.Signal, rec.CrawlStatus),
	})
}

func (c *Coordinator) record(runID string, company types.CompanyRecord) types.CompanyReport {
	return types.CompanyReport{
		RecordType: types.RecordTypeCompany,
		RunID:      runID,
		BusinessID: company.BusinessID,
		Name:       company.Name,
		Signal:     types.SignalUnclear,
		Inference:  c.classifier.InferenceInfo(),
	}
}

func (c *Coordinator) skipped(runID string, company types.CompanyRecord, site types.ResolvedWebsite, reason string) types.CompanyReport {
	rec := c.record(runID, company)
	rec.Website = site
	rec.CrawlStatus = types.CrawlSkipped
	rec.SkippedReasons = []string{reason}
	normalize(&rec)
	return rec
}

func unresolved() types.ResolvedWebsite {
	return types.ResolvedWebsite{Source: types.SourceUnknown}
}

// merge appends the entries of extra missing from base, keeping order.
func merge(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// normalize replaces nil slices so they encode as empty arrays.
func normalize(rec *types.CompanyReport) {
	if rec.CheckedURLs == nil {
		rec.CheckedURLs = []string{}
	}
	if rec.Evidence == nil {
		rec.Evidence = []types.EvidenceItem{}
	}
	if rec.Errors == nil {
		rec.Errors = []string{}
	}
	if rec.SkippedReasons == nil {
		rec.SkippedReasons = []string{}
	}
}
