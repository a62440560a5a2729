package types

import "time"

// CrawlStatus is the outcome of probing a website.
type CrawlStatus string

const (
	// CrawlOK means at least the homepage was fetched and has text
	CrawlOK CrawlStatus = "ok"
	// CrawlRobotsBlocked means robots directives disallowed the homepage or were unavailable
	CrawlRobotsBlocked CrawlStatus = "robots_blocked"
	// CrawlFetchError means the homepage request failed
	CrawlFetchError CrawlStatus = "fetch_error"
	// CrawlEmpty means the homepage had no usable text
	CrawlEmpty CrawlStatus = "empty"
	// CrawlSkipped is used on output records for companies that were never crawled
	CrawlSkipped CrawlStatus = "skipped"
)

// PageKind identifies which probe produced a page.
type PageKind string

const (
	// PageHomepage is the resolved website root
	PageHomepage PageKind = "homepage"
	// PageCareers is the single careers page followed from the homepage
	PageCareers PageKind = "careers"
)

// FetchedPage is one page retrieved during a crawl.
type FetchedPage struct {
	URL       string    `json:"url"`
	Kind      PageKind  `json:"kind"`
	HTML      string    `json:"-"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CrawlResult is the output of the polite fetcher for one website.
type CrawlResult struct {
	URL            string        `json:"url"`
	FetchedAt      time.Time     `json:"fetched_at"`
	Status         CrawlStatus   `json:"status"`
	Pages          []FetchedPage `json:"pages"`
	Errors         []string      `json:"errors,omitempty"`
	SkippedReasons []string      `json:"skipped_reasons,omitempty"`
	ATSPlatform    string        `json:"ats_platform,omitempty"`
}

// CheckedURLs returns the URLs of all fetched pages in fetch order.
func (c *CrawlResult) CheckedURLs() []string {
	urls := make([]string, 0, len(c.Pages))
	for _, p := range c.Pages {
		urls = append(urls, p.URL)
	}
	return urls
}

// Page returns the first page of the given kind, or nil.
func (c *CrawlResult) Page(kind PageKind) *FetchedPage {
	for i := range c.Pages {
		if c.Pages[i].Kind == kind {
			return &c.Pages[i]
		}
	}
	return nil
}
