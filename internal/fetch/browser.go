// Package fetch - browser.go provides headless browser rendering for script-rendered pages.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum extracted text length to accept a plain HTTP fetch.
// Shorter pages are re-rendered in a browser when rendering is enabled.
const MinContentLength = 200

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely rendered by JavaScript.
func ShouldUseBrowser(extractedText string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(extractedText)) < MinContentLength
}

// Renderer renders a URL and returns the resulting HTML.
type Renderer func(ctx context.Context, url string) (string, error)

// BrowserRenderer returns a Renderer backed by headless Chrome with the given timeout.
// Requires Chrome/Chromium to be installed on the system.
func BrowserRenderer(timeout time.Duration, userAgent string) Renderer {
	return func(ctx context.Context, url string) (string, error) {
		return WithBrowser(ctx, url, timeout, userAgent)
	}
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, userAgent string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// give client-side rendering a moment to populate the page
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	return html, nil
}
