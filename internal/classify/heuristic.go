package classify

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/hiring-signal/internal/types"
)

// Matcher finds vocabulary phrases in page text. Matching ignores case,
// treats any run of whitespace as one space and accepts straight or curly
// apostrophes. A phrase only matches on word boundaries.
type Matcher struct {
	positive []*regexp.Regexp
	negative []*regexp.Regexp
}

// NewMatcher compiles a Vocabulary. Blank phrases are ignored.
func NewMatcher(v Vocabulary) *Matcher {
	return &Matcher{
		positive: compilePhrases(v.Positive),
		negative: compilePhrases(v.Negative),
	}
}

func compilePhrases(phrases []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			continue
		}
		for i, f := range fields {
			q := regexp.QuoteMeta(f)
			q = strings.NewReplacer("'", "['’]", "’", "['’]").Replace(q)
			fields[i] = q
		}
		out = append(out, regexp.MustCompile(`(?i)`+strings.Join(fields, `\s+`)))
	}
	return out
}

type span struct {
	start, end int
}

func (s span) within(o span) bool {
	return s.start >= o.start && s.end <= o.end
}

// negativeSpans returns the rejection phrase spans in text.
func (m *Matcher) negativeSpans(text string) []span {
	return findAll(text, m.negative)
}

// positiveSpans returns hiring phrase spans that are not part of a rejection phrase.
func (m *Matcher) positiveSpans(text string, negatives []span) []span {
	var kept []span
	for _, p := range findAll(text, m.positive) {
		inside := false
		for _, n := range negatives {
			if p.within(n) {
				inside = true
				break
			}
		}
		if !inside {
			kept = append(kept, p)
		}
	}
	return kept
}

// HasPositive reports whether text contains hiring vocabulary outside any rejection phrase.
func (m *Matcher) HasPositive(text string) bool {
	return len(m.positiveSpans(text, m.negativeSpans(text))) > 0
}

// HasNegative reports whether text contains rejection vocabulary.
func (m *Matcher) HasNegative(text string) bool {
	return len(m.negativeSpans(text)) > 0
}

func findAll(text string, res []*regexp.Regexp) []span {
	var spans []span
	seen := make(map[span]bool)
	for _, re := range res {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			s := span{loc[0], loc[1]}
			if seen[s] || !onWordBoundary(text, s) {
				continue
			}
			seen[s] = true
			spans = append(spans, s)
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	// "hiring" inside "we're hiring" is the same occurrence
	kept := spans[:0]
	for _, s := range spans {
		if n := len(kept); n > 0 && s.within(kept[n-1]) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func onWordBoundary(text string, s span) bool {
	if s.start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:s.start])
		if isWordRune(r) {
			return false
		}
	}
	if s.end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[s.end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// heuristicResult is the outcome of the phrase scan over all pages.
type heuristicResult struct {
	positive []types.EvidenceItem
	negative []types.EvidenceItem
}

// lean is the polarity the scan points to, or unclear when it is mixed or empty.
func (h heuristicResult) lean() types.Signal {
	switch {
	case len(h.positive) > 0 && len(h.negative) == 0:
		return types.SignalYes
	case len(h.negative) > 0 && len(h.positive) == 0:
		return types.SignalNo
	default:
		return types.SignalUnclear
	}
}

func (h heuristicResult) items(s types.Signal) []types.EvidenceItem {
	switch s {
	case types.SignalYes:
		return h.positive
	case types.SignalNo:
		return h.negative
	default:
		return nil
	}
}

// unambiguous reports whether a single polarity matched with enough distinct snippets.
func (h heuristicResult) unambiguous() bool {
	lean := h.lean()
	return lean.Committed() && len(h.items(lean)) >= types.MinEvidence
}

func (h heuristicResult) empty() bool {
	return len(h.positive) == 0 && len(h.negative) == 0
}

// scan collects snippet evidence for both polarities from every page.
func (c *Classifier) scan(pages []types.FetchedPage) heuristicResult {
	var h heuristicResult
	for _, page := range pages {
		negatives := c.matcher.negativeSpans(page.Text)
		positives := c.matcher.positiveSpans(page.Text, negatives)

		h.positive = appendSnippets(h.positive, page, positives, c.cfg.SnippetWindow, c.cfg.MaxSnippetsPerPage)
		h.negative = appendSnippets(h.negative, page, negatives, c.cfg.SnippetWindow, c.cfg.MaxSnippetsPerPage)
	}
	h.positive = capEvidence(h.positive)
	h.negative = capEvidence(h.negative)
	return h
}

// appendSnippets adds one evidence item per occurrence. Spans whose windows
// overlap share a single snippet.
func appendSnippets(items []types.EvidenceItem, page types.FetchedPage, spans []span, window, perPage int) []types.EvidenceItem {
	seen := make(map[string]bool)
	added := 0
	lo, hi := -1, -1

	flush := func() {
		if lo < 0 || added == perPage {
			return
		}
		snippet := strings.TrimSpace(page.Text[lo:hi])
		if snippet == "" || seen[snippet] {
			return
		}
		seen[snippet] = true
		items = append(items, types.EvidenceItem{Snippet: snippet, URL: page.URL})
		added++
	}

	for _, s := range spans {
		l, h := windowAround(page.Text, s, window)
		if lo >= 0 && l < hi {
			if h > hi {
				hi = h
			}
			continue
		}
		flush()
		lo, hi = l, h
	}
	flush()
	return items
}

// windowAround returns the bounds of up to window runes on each side of s,
// trimmed so the edges do not cut a word.
func windowAround(text string, s span, window int) (int, int) {
	lo := s.start
	for i := 0; i < window && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := s.end
	for i := 0; i < window && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}

	if lo > 0 && text[lo-1] != ' ' {
		if idx := strings.IndexByte(text[lo:s.start], ' '); idx >= 0 {
			lo += idx + 1
		}
	}
	if hi < len(text) && text[hi] != ' ' {
		if idx := strings.LastIndexByte(text[s.end:hi], ' '); idx >= 0 {
			hi = s.end + idx
		}
	}
	return lo, hi
}

func capEvidence(items []types.EvidenceItem) []types.EvidenceItem {
	if len(items) > types.MaxEvidence {
		return items[:types.MaxEvidence]
	}
	return items
}
