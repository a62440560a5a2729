package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-signal/internal/classify"
	"github.com/jonathan/hiring-signal/internal/crawling"
	"github.com/jonathan/hiring-signal/internal/db"
	"github.com/jonathan/hiring-signal/internal/fetch"
	"github.com/jonathan/hiring-signal/internal/ratelimit"
	"github.com/jonathan/hiring-signal/internal/resolve"
	"github.com/jonathan/hiring-signal/internal/snapshot"
	"github.com/jonathan/hiring-signal/internal/types"
)

const allowAll = "User-agent: *\nAllow: /\n"

// testSite serves robots.txt and a mutable set of pages.
type testSite struct {
	mu          sync.Mutex
	robotsDelay time.Duration
	pages       map[string]string
}

func (s *testSite) set(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = body
}

func (s *testSite) serve(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			if s.robotsDelay > 0 {
				time.Sleep(s.robotsDelay)
			}
			_, _ = w.Write([]byte(allowAll))
			return
		}
		s.mu.Lock()
		body, ok := s.pages[r.URL.Path]
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestCoordinator(opts Options, budget *ratelimit.Budget) *Coordinator {
	if budget == nil {
		budget = ratelimit.NewBudget(0, 0)
	}
	client := fetch.NewClient(&fetch.Options{Timeout: time.Second})
	limiter := ratelimit.NewHostLimiter(0, nil)
	robots := fetch.NewRobotsCache(fetch.RobotsConfig{Timeout: 50 * time.Millisecond}, client, limiter, nil)
	crawler := crawling.New(crawling.Config{}, client, robots, limiter, budget, nil)
	classifier := classify.New(classify.DefaultConfig(), nil, nil)
	resolver := resolve.New(resolve.Config{}, nil, nil)
	return New(opts, resolver, crawler, classifier, budget, nil)
}

func company(id, website string) types.CompanyRecord {
	return types.CompanyRecord{BusinessID: id, Name: "Company " + id, Website: website}
}

func TestRun_HiringScenario(t *testing.T) {
	site := &testSite{pages: map[string]string{
		"/":        `<html><body><h1>We're hiring</h1><a href="/careers">Careers</a></body></html>`,
		"/careers": `<html><body><h2>Open positions</h2></body></html>`,
	}}
	server := site.serve(t)

	out, err := newTestCoordinator(Options{}, nil).Run(context.Background(), []types.CompanyRecord{company("1", server.URL)})
	require.NoError(t, err)
	require.Len(t, out.Report.Records, 1)

	rec := out.Report.Records[0]
	assert.Equal(t, types.RecordTypeCompany, rec.RecordType)
	assert.Equal(t, types.SourceUser, rec.Website.Source)
	assert.Equal(t, types.CrawlOK, rec.CrawlStatus)
	assert.Equal(t, []string{server.URL + "/", server.URL + "/careers"}, rec.CheckedURLs)
	assert.Equal(t, types.SignalYes, rec.Signal)
	require.GreaterOrEqual(t, len(rec.Evidence), types.MinEvidence)
	for _, e := range rec.Evidence {
		assert.Contains(t, rec.CheckedURLs, e.URL)
	}
	assert.Greater(t, rec.Confidence, 0.0)
	assert.False(t, rec.LLMUsed)
	assert.Equal(t, "none", rec.Inference.Provider)

	prov := out.Report.Provenance
	assert.Equal(t, types.RecordTypeProvenance, prov.RecordType)
	assert.Equal(t, rec.RunID, prov.RunID)
	assert.Equal(t, 1, prov.Companies)
	assert.Equal(t, "jsonl", prov.OutputFormat)
}

func TestRun_RobotsTimeoutBlocksCompany(t *testing.T) {
	site := &testSite{
		robotsDelay: 300 * time.Millisecond,
		pages:       map[string]string{"/": `<p>We're hiring</p>`},
	}
	server := site.serve(t)

	out, err := newTestCoordinator(Options{}, nil).Run(context.Background(), []types.CompanyRecord{company("1", server.URL)})
	require.NoError(t, err)

	rec := out.Report.Records[0]
	assert.Equal(t, types.CrawlRobotsBlocked, rec.CrawlStatus)
	assert.Equal(t, types.SignalUnclear, rec.Signal)
	assert.Zero(t, rec.Confidence)
	assert.Empty(t, rec.Evidence)
	assert.Empty(t, rec.CheckedURLs)
	assert.Contains(t, rec.Errors, types.ReasonRobotsUnavailable)
	assert.Nil(t, rec.Jobs)
}

func TestRun_SkipReasons(t *testing.T) {
	site := &testSite{pages: map[string]string{"/": `<p>Boats and sails</p>`}}
	server := site.serve(t)

	companies := []types.CompanyRecord{
		company("no-site", ""),
		company("first", server.URL),
		company("second-domain", "https://b.invalid"),
		company("over-cap", server.URL),
	}
	c := newTestCoordinator(Options{Workers: 1, MaxCompanies: 3}, ratelimit.NewBudget(1, 0))

	out, err := c.Run(context.Background(), companies)
	require.NoError(t, err)
	require.Len(t, out.Report.Records, 4)

	tests := []struct {
		index  int
		status types.CrawlStatus
		reason string
	}{
		{index: 0, status: types.CrawlSkipped, reason: types.ReasonNoWebsite},
		{index: 1, status: types.CrawlOK},
		{index: 2, status: types.CrawlSkipped, reason: types.ReasonDomainCap},
		{index: 3, status: types.CrawlSkipped, reason: types.ReasonCompanyBudget},
	}
	for _, tt := range tests {
		t.Run(companies[tt.index].BusinessID, func(t *testing.T) {
			rec := out.Report.Records[tt.index]
			assert.Equal(t, tt.status, rec.CrawlStatus)
			if tt.reason == "" {
				return
			}
			assert.Equal(t, []string{tt.reason}, rec.SkippedReasons)
			assert.Equal(t, types.SignalUnclear, rec.Signal)
			assert.Empty(t, rec.CheckedURLs)
			assert.NotNil(t, rec.Errors)
			assert.NotNil(t, rec.Evidence)
		})
	}

	assert.Equal(t, types.SourceUnknown, out.Report.Records[0].Website.Source)
	assert.Equal(t, types.SourceUser, out.Report.Records[2].Website.Source)
}

func TestRun_PreservesInputOrder(t *testing.T) {
	site := &testSite{pages: map[string]string{"/": `<p>We're hiring</p>`}}
	server := site.serve(t)

	var companies []types.CompanyRecord
	for i := 0; i < 12; i++ {
		website := ""
		if i%3 == 0 {
			website = server.URL
		}
		companies = append(companies, company(fmt.Sprintf("c%02d", i), website))
	}

	out, err := newTestCoordinator(Options{Workers: 4}, nil).Run(context.Background(), companies)
	require.NoError(t, err)
	require.Len(t, out.Report.Records, len(companies))
	for i, rec := range out.Report.Records {
		assert.Equal(t, companies[i].BusinessID, rec.BusinessID)
	}
}

type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

func (c *stepClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

func TestRun_RunDeadline(t *testing.T) {
	clock := &stepClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), step: time.Minute}
	c := newTestCoordinator(Options{Workers: 1, RunDeadline: 90 * time.Second}, nil).WithClock(clock)

	out, err := c.Run(context.Background(), []types.CompanyRecord{
		company("early", ""),
		company("late", ""),
		company("later", ""),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{types.ReasonNoWebsite}, out.Report.Records[0].SkippedReasons)
	assert.Equal(t, []string{types.ReasonRunDeadline}, out.Report.Records[1].SkippedReasons)
	assert.Equal(t, []string{types.ReasonRunDeadline}, out.Report.Records[2].SkippedReasons)
	assert.Equal(t, "2025-03-01T08:00:00Z", out.Report.Provenance.CrawlTS)
	assert.Regexp(t, `^20250301_080000_[0-9a-f]{4}$`, out.Report.Provenance.RunID)
}

const careersTemplate = `<html><head><script type="application/ld+json">[%s]</script></head>
<body><h2>Open positions</h2></body></html>`

func posting(title, city string) string {
	return fmt.Sprintf(`{"@type":"JobPosting","title":%q,"jobLocation":{"address":{"addressLocality":%q}}}`, title, city)
}

func TestRun_JobsDiffAcrossRuns(t *testing.T) {
	site := &testSite{pages: map[string]string{
		"/": `<html><body><h1>We're hiring</h1><a href="/careers">Careers</a></body></html>`,
		"/careers": fmt.Sprintf(careersTemplate,
			posting("Backend Engineer", "Helsinki")+","+posting("Designer", "Espoo")),
	}}
	server := site.serve(t)

	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)
	companies := []types.CompanyRecord{company("1234567-8", server.URL)}

	first, err := newTestCoordinator(Options{}, nil).WithSnapshots(store).Run(context.Background(), companies)
	require.NoError(t, err)
	jobs := first.Report.Records[0].Jobs
	require.NotNil(t, jobs)
	assert.Equal(t, types.JobsSummary{Listings: 2}, *jobs)
	assert.Empty(t, first.Diffs)

	site.set("/careers", fmt.Sprintf(careersTemplate,
		posting("backend engineer", "Helsinki, Finland")+","+posting("Data Analyst", "Tampere")))

	second, err := newTestCoordinator(Options{}, nil).WithSnapshots(store).Run(context.Background(), companies)
	require.NoError(t, err)
	jobs = second.Report.Records[0].Jobs
	require.NotNil(t, jobs)
	assert.Equal(t, types.JobsSummary{Listings: 2, New: 1, Removed: 1, Unchanged: 1, HasPrior: true}, *jobs)

	diff := second.Diffs["1234567-8"]
	require.NotNil(t, diff)
	require.Len(t, diff.New, 1)
	assert.Equal(t, "Data Analyst", diff.New[0].Title)
	require.Len(t, diff.Removed, 1)
	assert.Equal(t, "Designer", diff.Removed[0].Title)

	saved, err := store.Load(context.Background(), "1234567-8")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, second.Report.Provenance.RunID, saved.RunID)
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (*types.Snapshot, error) {
	return nil, errors.New("store offline")
}

func (failingStore) Save(context.Context, types.Snapshot) error {
	return errors.New("store offline")
}

func TestRun_SnapshotFailuresAreRecorded(t *testing.T) {
	site := &testSite{pages: map[string]string{"/": `<p>We're hiring</p>`}}
	server := site.serve(t)

	out, err := newTestCoordinator(Options{}, nil).WithSnapshots(failingStore{}).Run(context.Background(), []types.CompanyRecord{company("1", server.URL)})
	require.NoError(t, err)

	rec := out.Report.Records[0]
	assert.Equal(t, types.CrawlOK, rec.CrawlStatus)
	assert.Contains(t, rec.Errors, "snapshot_load: store offline")
	assert.Contains(t, rec.Errors, "snapshot_save: store offline")
	require.NotNil(t, rec.Jobs)
	assert.False(t, rec.Jobs.HasPrior)
}

type recordingResults struct {
	mu       sync.Mutex
	run      *types.RunProvenance
	saved    []string
	status   string
	count    int
	failSave bool
}

func (r *recordingResults) CreateRun(_ context.Context, p types.RunProvenance) error {
	r.run = &p
	return nil
}

func (r *recordingResults) SaveCompanyResult(_ context.Context, rec types.CompanyReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errors.New("insert failed")
	}
	r.saved = append(r.saved, rec.BusinessID)
	return nil
}

func (r *recordingResults) CompleteRun(_ context.Context, _ string, status string, companies int) error {
	r.status = status
	r.count = companies
	return nil
}

func TestRun_PersistsResults(t *testing.T) {
	tests := []struct {
		name       string
		failSave   bool
		wantStatus string
		wantSaved  []string
	}{
		{name: "all saved", wantStatus: db.RunStatusCompleted, wantSaved: []string{"a", "b"}},
		{name: "save failure marks run failed", failSave: true, wantStatus: db.RunStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := &recordingResults{failSave: tt.failSave}
			c := newTestCoordinator(Options{}, nil).WithResults(results)

			out, err := c.Run(context.Background(), []types.CompanyRecord{company("a", ""), company("b", "")})
			require.NoError(t, err)

			require.NotNil(t, results.run)
			assert.Equal(t, out.Report.Provenance.RunID, results.run.RunID)
			assert.Equal(t, tt.wantSaved, results.saved)
			assert.Equal(t, tt.wantStatus, results.status)
			assert.Equal(t, 2, results.count)
		})
	}
}

func TestRun_ProgressCallback(t *testing.T) {
	var events []ProgressEvent
	c := newTestCoordinator(Options{
		Workers:      3,
		MaxCompanies: 2,
		OnProgress:   func(e ProgressEvent) { events = append(events, e) },
	}, nil)

	_, err := c.Run(context.Background(), []types.CompanyRecord{company("a", ""), company("b", ""), company("c", "")})
	require.NoError(t, err)

	require.Len(t, events, 3)
	seen := map[string]bool{}
	for i, e := range events {
		assert.Equal(t, i+1, e.Index)
		assert.Equal(t, 3, e.Total)
		seen[e.BusinessID] = true
	}
	assert.Len(t, seen, 3)
}

func TestRun_CanceledContextSkipsCompanies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := newTestCoordinator(Options{}, nil).Run(ctx, []types.CompanyRecord{company("a", "https://a.invalid")})
	require.NoError(t, err)
	assert.Equal(t, []string{types.ReasonRunDeadline}, out.Report.Records[0].SkippedReasons)
}

func TestNewRunID(t *testing.T) {
	start := time.Date(2025, 11, 2, 23, 4, 5, 0, time.FixedZone("EET", 2*3600))
	id := NewRunID(start)
	assert.Regexp(t, regexp.MustCompile(`^20251102_210405_[0-9a-f]{4}$`), id)
}

func TestNewProvenance_Defaults(t *testing.T) {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := newProvenance("20250102_030405_abcd", start, 3, "", "", "")

	assert.Equal(t, types.RecordTypeProvenance, p.RecordType)
	assert.Equal(t, ToolVersion, p.ToolVersion)
	assert.Equal(t, unknownRevision, p.GitSHA)
	assert.Equal(t, "2025-01-02T03:04:05Z", p.CrawlTS)
	assert.Equal(t, "jsonl", p.OutputFormat)
	assert.Equal(t, 3, p.Companies)
}

func TestMerge(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, merge([]string{"a", "b"}, []string{"b", "", "c"}))
	assert.Equal(t, []string{}, merge(nil, nil))
}
