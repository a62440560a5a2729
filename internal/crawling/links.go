package crawling

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/hiring-signal/internal/fetch"
)

// DefaultCareersHints is the vocabulary matched against link paths and anchor text.
var DefaultCareersHints = []string{
	"careers", "career", "jobs", "job", "open positions", "open roles",
	"join us", "join our team", "work with us", "vacancies",
	"rekry", "rekrytointi", "ura", "tyopaikat", "työpaikat", "avoimet työpaikat",
}

// CareerLink is a candidate careers page found on a homepage.
type CareerLink struct {
	URL   string
	Text  string
	Score int
}

// CareerLinks returns links from htmlContent that look like a careers page,
// best first. Only links on the same site as baseURL or on a known applicant
// tracking system are considered.
func CareerLinks(htmlContent string, baseURL string, hints []string) ([]CareerLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse base URL",
			Cause:   err,
		}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{
			Message: fmt.Sprintf("invalid base URL: %s (must have scheme and host)", baseURL),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse HTML",
			Cause:   err,
		}
	}

	if len(hints) == 0 {
		hints = DefaultCareersHints
	}
	patterns := make([]string, 0, len(hints))
	for _, h := range hints {
		if p := tokenPath(h); p != "/" {
			patterns = append(patterns, p)
		}
	}

	self := strings.TrimSuffix(base.String(), "/")
	domain := fetch.SiteDomain(baseURL)
	seen := make(map[string]bool)
	links := make([]CareerLink, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		linkURL, err := url.Parse(strings.TrimSpace(href))
		if err != nil || href == "" {
			return
		}

		absoluteURL := base.ResolveReference(linkURL)
		if absoluteURL.Scheme != "http" && absoluteURL.Scheme != "https" {
			return
		}
		absoluteURL.Fragment = ""
		urlString := absoluteURL.String()
		if strings.TrimSuffix(urlString, "/") == self || seen[urlString] {
			return
		}

		host := absoluteURL.Hostname()
		ats := fetch.IsATSHost(host)
		if !ats && !fetch.SameSite(host, domain) {
			return
		}

		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			text, _ = s.Attr("title")
		}

		score := 0
		if matchesAny(tokenPath(absoluteURL.Path), patterns) {
			score += 2
		}
		if matchesAny(tokenPath(text), patterns) {
			score++
		}
		if score == 0 {
			return
		}
		if ats {
			score++
		}

		seen[urlString] = true
		links = append(links, CareerLink{URL: urlString, Text: text, Score: score})
	})

	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Score > links[j].Score
	})
	return links, nil
}

// tokenPath lowercases s and joins its letter/digit runs with slashes, so
// "/Open-Positions" and "open positions" both become "/open/positions/".
func tokenPath(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return "/"
	}
	return "/" + strings.Join(fields, "/") + "/"
}

func matchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}
