package crawling

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/jonathan/hiring-signal/internal/fetch"
	"github.com/jonathan/hiring-signal/internal/logging"
	"github.com/jonathan/hiring-signal/internal/ratelimit"
	"github.com/jonathan/hiring-signal/internal/types"
)

// DefaultMaxPagesPerCompany is the homepage plus one careers page.
const DefaultMaxPagesPerCompany = 2

// Config configures a Crawler.
type Config struct {
	MaxPagesPerCompany int
	MaxTextChars       int
	CareersHints       []string
	UseBrowser         bool
}

// Crawler fetches the homepage of a site and at most one careers page,
// honoring robots directives, per-host pacing and the per-domain page budget.
type Crawler struct {
	cfg     Config
	client  *fetch.Client
	robots  *fetch.RobotsCache
	limiter ratelimit.Limiter
	budget  *ratelimit.Budget
	render  fetch.Renderer
	now     func() time.Time
	log     *slog.Logger
}

// New creates a Crawler. budget may be nil to disable page budgets.
func New(cfg Config, client *fetch.Client, robots *fetch.RobotsCache, limiter ratelimit.Limiter, budget *ratelimit.Budget, log *slog.Logger) *Crawler {
	if cfg.MaxPagesPerCompany <= 0 {
		cfg.MaxPagesPerCompany = DefaultMaxPagesPerCompany
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = fetch.DefaultMaxTextChars
	}
	return &Crawler{
		cfg:     cfg,
		client:  client,
		robots:  robots,
		limiter: limiter,
		budget:  budget,
		now:     func() time.Time { return time.Now().UTC() },
		log:     logging.OrDiscard(log),
	}
}

// WithRenderer sets the browser renderer used when UseBrowser is enabled.
func (c *Crawler) WithRenderer(r fetch.Renderer) *Crawler {
	c.render = r
	return c
}

// Crawl probes siteURL. It never returns an error: failures are encoded in
// the result's Status, Errors and SkippedReasons.
func (c *Crawler) Crawl(ctx context.Context, siteURL string) types.CrawlResult {
	result := types.CrawlResult{
		URL:       siteURL,
		FetchedAt: c.now(),
		Status:    types.CrawlOK,
	}

	if fetch.SiteDomain(siteURL) == "" {
		result.Status = types.CrawlFetchError
		result.Errors = append(result.Errors, "invalid_url")
		return result
	}

	home, err := c.fetchPage(ctx, siteURL, types.PageHomepage)
	if err != nil {
		var crawlErr *CrawlError
		if errors.As(err, &crawlErr) {
			result.Status = crawlErr.Status
			if crawlErr.Status == types.CrawlSkipped {
				result.SkippedReasons = append(result.SkippedReasons, crawlErr.Message)
			} else {
				result.Errors = append(result.Errors, crawlErr.Message)
			}
		}
		c.log.Info("homepage probe failed", "url", siteURL, "status", result.Status, "error", err)
		return result
	}
	result.Pages = append(result.Pages, *home)

	if c.cfg.MaxPagesPerCompany < 2 {
		return result
	}

	links, err := CareerLinks(home.HTML, home.URL, c.cfg.CareersHints)
	if err != nil {
		result.Errors = append(result.Errors, "careers_links: "+err.Error())
		return result
	}

	for _, link := range links {
		page, err := c.fetchPage(ctx, link.URL, types.PageCareers)
		if err != nil {
			var crawlErr *CrawlError
			if !errors.As(err, &crawlErr) {
				break
			}
			switch crawlErr.Status {
			case types.CrawlRobotsBlocked:
				// try the next candidate; this one is off limits
				result.Errors = append(result.Errors, "careers_"+crawlErr.Message)
				continue
			case types.CrawlSkipped:
				result.SkippedReasons = append(result.SkippedReasons, crawlErr.Message)
			default:
				result.Errors = append(result.Errors, "careers_"+crawlErr.Message)
			}
			break
		}

		result.Pages = append(result.Pages, *page)
		if p := fetch.DetectPlatform(page.URL); p != fetch.PlatformUnknown {
			result.ATSPlatform = string(p)
		}
		break
	}

	return result
}

// fetchPage fetches and extracts one page. Redirects are followed hop by
// hop, and every hop passes the robots, budget and pacing checks of its own host.
func (c *Crawler) fetchPage(ctx context.Context, pageURL string, kind types.PageKind) (*types.FetchedPage, error) {
	current := pageURL
	var result *fetch.Result
	for hop := 0; ; hop++ {
		u, err := url.Parse(current)
		if err != nil || u.Host == "" {
			return nil, &CrawlError{Status: types.CrawlFetchError, Message: "invalid_url", Cause: err}
		}
		if err := c.admit(ctx, current); err != nil {
			return nil, err
		}
		if result, err = c.get(ctx, u.Host, current); err != nil {
			return nil, err
		}
		if result.Redirect == "" {
			break
		}
		if hop >= fetch.MaxRedirects {
			return nil, &CrawlError{Status: types.CrawlFetchError, Message: "too_many_redirects", Cause: types.ErrFetchFailure}
		}
		c.log.Debug("following redirect", "from", current, "to", result.Redirect)
		current = result.Redirect
	}

	if !fetch.IsTextContent(result.ContentType) {
		return nil, &CrawlError{Status: types.CrawlEmpty, Message: "non_text_content"}
	}
	htmlContent := result.HTML

	text, err := fetch.ExtractText(htmlContent, c.cfg.MaxTextChars)
	if err != nil {
		return nil, &CrawlError{Status: types.CrawlEmpty, Message: "unparseable_html", Cause: err}
	}

	if c.cfg.UseBrowser && c.render != nil && fetch.ShouldUseBrowser(text) {
		if rendered, ok := c.renderPage(ctx, current); ok {
			if renderedText, err := fetch.ExtractText(rendered, c.cfg.MaxTextChars); err == nil && len(renderedText) > len(text) {
				htmlContent, text = rendered, renderedText
			}
		}
	}

	if text == "" {
		return nil, &CrawlError{Status: types.CrawlEmpty, Message: "empty_page"}
	}

	return &types.FetchedPage{
		URL:       current,
		Kind:      kind,
		HTML:      htmlContent,
		Text:      text,
		FetchedAt: c.now(),
	}, nil
}

// admit checks robots for pageURL and charges one page to the domain being
// fetched, which for a hosted job board is not the company's own domain.
func (c *Crawler) admit(ctx context.Context, pageURL string) error {
	decision := c.robots.Check(ctx, pageURL)
	if !decision.Allowed {
		cause := types.ErrRobotsDisallowed
		if decision.Reason == types.ReasonRobotsUnavailable {
			cause = types.ErrRobotsUnavailable
		}
		return &CrawlError{Status: types.CrawlRobotsBlocked, Message: decision.Reason, Cause: cause}
	}

	if c.budget == nil {
		return nil
	}
	domain := fetch.SiteDomain(pageURL)
	if reason := c.budget.AdmitDomain(domain); reason != "" {
		return &CrawlError{Status: types.CrawlSkipped, Message: reason, Cause: types.ErrBudgetExhausted}
	}
	if !c.budget.ReservePage(domain) {
		return &CrawlError{Status: types.CrawlSkipped, Message: types.ReasonDomainBudget, Cause: types.ErrBudgetExhausted}
	}
	return nil
}

func (c *Crawler) get(ctx context.Context, host, pageURL string) (*fetch.Result, error) {
	if _, err := c.limiter.Wait(ctx, host); err != nil {
		return nil, &CrawlError{Status: types.CrawlFetchError, Message: "cancelled", Cause: err}
	}
	result, err := c.client.Get(ctx, pageURL)
	c.limiter.RecordRequest(host)

	if err != nil {
		reason := "request_failed"
		var fetchErr *fetch.Error
		if errors.As(err, &fetchErr) {
			reason = fetchErr.Reason()
		}
		return nil, &CrawlError{Status: types.CrawlFetchError, Message: reason, Cause: err}
	}
	return result, nil
}

func (c *Crawler) renderPage(ctx context.Context, pageURL string) (string, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	host := u.Host
	if _, err := c.limiter.Wait(ctx, host); err != nil {
		return "", false
	}
	rendered, err := c.render(ctx, pageURL)
	c.limiter.RecordRequest(host)
	if err != nil {
		c.log.Debug("browser render failed", "url", pageURL, "error", err)
		return "", false
	}
	return rendered, true
}
