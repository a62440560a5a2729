package jobs

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/hiring-signal/internal/fetch"
	"github.com/jonathan/hiring-signal/internal/types"
)

// MaxRawTextChars caps the context text kept with each listing.
const MaxRawTextChars = 300

var jobPathHints = []string{
	"/job/", "/jobs/", "/careers/", "/career/", "/positions/", "/position/",
	"/openings/", "/vacancies/", "/vacancy/", "/o/", "/avoimet-tyopaikat/", "/tyopaikat/", "/rekry/",
}

var nonJobPaths = []string{
	"/blog", "/news", "/about", "/contact", "/privacy", "/cookie", "/login",
	"/search", "/category", "/tag", "/benefits", "/culture", "/team", "/faq",
}

// ExtractListings returns the job postings on a careers page: JSON-LD
// JobPosting objects first, then anchors that look like individual postings.
// Listings are deduplicated by fingerprint.
func ExtractListings(page types.FetchedPage) []types.JobListing {
	if strings.TrimSpace(page.HTML) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil
	}

	listings := structuredListings(doc, page.URL)
	listings = append(listings, anchorListings(doc, page.URL)...)
	return Dedupe(listings)
}

func structuredListings(doc *goquery.Document, pageURL string) []types.JobListing {
	var out []types.JobListing
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		walkJSONLD(data, func(obj map[string]any) {
			title := collapse(stringField(obj["title"]))
			if title == "" {
				return
			}
			listingURL := stringField(obj["url"])
			if listingURL == "" {
				listingURL = pageURL
			}
			out = append(out, types.JobListing{
				Title:    title,
				Location: jobLocation(obj),
				URL:      listingURL,
				RawText:  truncate(htmlText(stringField(obj["description"])), MaxRawTextChars),
			})
		})
	})
	return out
}

// walkJSONLD calls fn for every JobPosting object, including those nested
// in arrays and @graph containers.
func walkJSONLD(v any, fn func(map[string]any)) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			walkJSONLD(item, fn)
		}
	case map[string]any:
		if isJobPosting(t["@type"]) {
			fn(t)
			return
		}
		if graph, ok := t["@graph"]; ok {
			walkJSONLD(graph, fn)
		}
	}
}

func isJobPosting(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "JobPosting"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func jobLocation(obj map[string]any) string {
	if s, ok := obj["jobLocationType"].(string); ok && strings.EqualFold(s, "TELECOMMUTE") {
		if _, has := obj["jobLocation"]; !has {
			return "Remote"
		}
	}

	loc := obj["jobLocation"]
	if arr, ok := loc.([]any); ok {
		if len(arr) == 0 {
			return ""
		}
		loc = arr[0]
	}
	place, ok := loc.(map[string]any)
	if !ok {
		return collapse(stringField(loc))
	}

	addr, ok := place["address"].(map[string]any)
	if !ok {
		return collapse(stringField(place["address"]))
	}
	var parts []string
	for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
		if s := collapse(stringField(addr[key])); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// stringField reads a JSON-LD value that may be a string or a {name: ...} object.
func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if name, ok := t["name"].(string); ok {
			return name
		}
	}
	return ""
}

func anchorListings(doc *goquery.Document, pageURL string) []types.JobListing {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	domain := fetch.SiteDomain(pageURL)

	var out []types.JobListing
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		host := abs.Hostname()
		if !fetch.SameSite(host, domain) && !fetch.IsATSHost(host) {
			return
		}
		if !isPostingPath(abs.Path, fetch.IsATSHost(host)) {
			return
		}

		title := collapse(s.Text())
		if len([]rune(title)) < 3 || len([]rune(title)) > 120 {
			return
		}

		container := s.Closest("li, article, tr, [class*=job], [class*=position], [class*=opening]")
		if container.Length() == 0 {
			container = s.Parent()
		}
		location := collapse(container.Find("[class*=location]").First().Text())

		abs.Fragment = ""
		out = append(out, types.JobListing{
			Title:    title,
			Location: location,
			URL:      abs.String(),
			RawText:  truncate(collapse(container.Text()), MaxRawTextChars),
		})
	})
	return out
}

// isPostingPath reports whether path points at a single posting rather
// than a listing index or an unrelated page.
func isPostingPath(path string, ats bool) bool {
	p := strings.ToLower(path)
	for _, bad := range nonJobPaths {
		if strings.Contains(p, bad) {
			return false
		}
	}
	segments := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if ats {
		return len(segments) >= 2
	}
	withSlash := strings.TrimSuffix(p, "/") + "/"
	for _, hint := range jobPathHints {
		idx := strings.Index(withSlash, hint)
		if idx >= 0 && len(withSlash) > idx+len(hint) {
			return true
		}
	}
	return false
}

func htmlText(s string) string {
	if !strings.Contains(s, "<") {
		return collapse(s)
	}
	text, err := fetch.ExtractText(s, 0)
	if err != nil {
		return collapse(s)
	}
	return text
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
