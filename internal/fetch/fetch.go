// Package fetch provides bounded HTTP fetching, robots directives and HTML-to-text processing.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/jonathan/hiring-signal/internal/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 20 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "hiring-signal/0.1 (+polite; robots-aware)"

// DefaultMaxBytes caps the size of a response body.
const DefaultMaxBytes = 2_000_000

// DefaultMaxTextChars caps the extracted text of a page.
const DefaultMaxTextChars = 6000

// MaxRedirects caps the redirect hops a caller follows for one page.
const MaxRedirects = 3

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
	// Redirect is the absolute Location of a 3xx response. The client never
	// follows it; callers run their own robots and pacing checks first.
	Redirect string
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is makes every fetch error match types.ErrFetchFailure.
func (e *Error) Is(target error) bool {
	return target == types.ErrFetchFailure
}

// Reason returns a short machine-readable reason for output records.
func (e *Error) Reason() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("http_%d", e.StatusCode)
	case e.Message == msgTooLarge:
		return "response_too_large"
	case errors.Is(e.Cause, context.DeadlineExceeded) || isTimeout(e.Cause):
		return "timeout"
	case e.Message == msgInvalidURL:
		return "invalid_url"
	default:
		return "request_failed"
	}
}

const (
	msgInvalidURL = "invalid URL"
	msgTooLarge   = "response too large"
)

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
	}
}

// Client performs single GET requests with a bounded timeout and body size.
// It never retries.
type Client struct {
	http *http.Client
	opts Options
}

// NewClient creates a Client. A nil opts uses DefaultOptions.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	return &Client{
		http: &http.Client{
			Timeout: o.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		opts: o,
	}
}

// UserAgent returns the user agent sent with every request.
func (c *Client) UserAgent() string {
	return c.opts.UserAgent
}

// Get retrieves a URL without following redirects. A 3xx response with a
// Location header returns a Result whose Redirect is set. Other non-2xx
// responses return both the Result and an *Error.
func (c *Client) Get(ctx context.Context, urlStr string) (*Result, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{URL: urlStr, Message: msgInvalidURL, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	reader, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		reader = resp.Body
	}

	body, err := io.ReadAll(io.LimitReader(reader, c.opts.MaxBytes+1))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	if int64(len(body)) > c.opts.MaxBytes {
		return nil, &Error{URL: urlStr, Message: msgTooLarge}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(body),
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode >= 300 && resp.StatusCode <= 399 {
		if loc, err := resp.Location(); err == nil {
			result.Redirect = loc.String()
			return result, nil
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return result, nil
}

// IsTextContent reports whether a Content-Type header denotes a text document.
// A missing header is treated as text.
func IsTextContent(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/xhtml+xml"
}

// ExtractText parses HTML and returns its visible text as a single line,
// with elements separated by spaces, capped at maxChars runes.
func ExtractText(htmlContent string, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, template, svg, iframe").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var sb strings.Builder
	for _, n := range root.Nodes {
		collectText(n, &sb)
	}

	text := strings.Join(strings.Fields(sb.String()), " ")
	return truncateRunes(text, maxChars), nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

func truncateRunes(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	count := 0
	for i := range s {
		if count == maxChars {
			return strings.TrimSpace(s[:i])
		}
		count++
	}
	return s
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
