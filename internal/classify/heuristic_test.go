package classify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-signal/internal/types"
)

func TestMatcher_HasPositive(t *testing.T) {
	m := NewMatcher(DefaultConfig().Vocabulary)

	tests := []struct {
		text string
		want bool
	}{
		{"We're hiring", true},
		{"WE’RE HIRING", true},
		{"see our open   positions", true},
		{"Avoimet työpaikat", true},
		{"Natural materials", false},
		{"jobsite safety equipment", false},
		{"We have no open positions", false},
		{"We are not hiring", false},
		{"No open positions in sales, but we're hiring engineers", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, m.HasPositive(tt.text))
		})
	}
}

func TestMatcher_HasNegative(t *testing.T) {
	m := NewMatcher(DefaultConfig().Vocabulary)

	assert.True(t, m.HasNegative("Currently NO  OPENINGS."))
	assert.True(t, m.HasNegative("Meillä ei avoimia paikkoja"))
	assert.False(t, m.HasNegative("Openings in Tampere"))
}

func TestMatcher_CustomVocabulary(t *testing.T) {
	m := NewMatcher(Vocabulary{Positive: []string{"  ", "karriere"}, Negative: []string{"keine stellen"}})

	assert.True(t, m.HasPositive("Karriere bei uns"))
	assert.False(t, m.HasPositive("careers"))
	assert.True(t, m.HasNegative("Derzeit keine Stellen"))
}

func TestWindowAround(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor ", 20) + "we're hiring engineers " + strings.Repeat("sit amet consectetur ", 20)
	start := strings.Index(text, "we're hiring")
	s := span{start: start, end: start + len("we're hiring")}

	lo, hi := windowAround(text, s, 30)
	snippet := strings.TrimSpace(text[lo:hi])

	assert.Contains(t, text, snippet)
	assert.Contains(t, snippet, "we're hiring")
	assert.LessOrEqual(t, utf8.RuneCountInString(snippet), 30*2+len("we're hiring"))
	assert.False(t, strings.HasPrefix(snippet, "orem"), "snippet must not start mid-word")
	for _, w := range strings.Fields(snippet) {
		assert.Contains(t, []string{"lorem", "ipsum", "dolor", "we're", "hiring", "engineers", "sit", "amet", "consectetur"}, w)
	}
}

func TestWindowAround_MultibyteText(t *testing.T) {
	text := "Äänekoski ja Jyväskylä: avoimet työpaikat löytyvät täältä"
	start := strings.Index(text, "avoimet työpaikat")
	lo, hi := windowAround(text, span{start: start, end: start + len("avoimet työpaikat")}, 5)
	snippet := text[lo:hi]

	assert.True(t, utf8.ValidString(snippet))
	assert.Equal(t, "avoimet työpaikat", snippet)
}

func TestScan_DedupesAndCaps(t *testing.T) {
	c := New(Config{SnippetWindow: 10, MaxSnippetsPerPage: 2}, nil, nil)
	filler := strings.Repeat("x ", 30)
	page := types.FetchedPage{
		URL:  "https://a.example/careers",
		Text: "jobs " + filler + "jobs " + filler + "jobs " + filler + "jobs",
	}

	other := page
	other.URL = "https://a.example/jobs"

	h := c.scan([]types.FetchedPage{page, other})

	require.Len(t, h.positive, 4, "two per page across two pages")
	assert.Empty(t, h.negative)
	for _, e := range h.positive {
		assert.Contains(t, page.Text, e.Snippet)
	}
}

func TestScan_SinglePhraseInLongTextIsOneItem(t *testing.T) {
	c := New(DefaultConfig(), nil, nil)
	filler := strings.Repeat("Our team designs durable outdoor furniture. ", 8)
	page := types.FetchedPage{
		URL:  "https://a.example/",
		Text: filler + "We're hiring. " + filler,
	}

	h := c.scan([]types.FetchedPage{page})

	require.Len(t, h.positive, 1)
	assert.Contains(t, h.positive[0].Snippet, "We're hiring.")
	assert.False(t, h.unambiguous())
}

func TestScan_DistantOccurrencesCountSeparately(t *testing.T) {
	c := New(DefaultConfig(), nil, nil)
	filler := strings.Repeat("Our team designs durable outdoor furniture. ", 8)
	page := types.FetchedPage{
		URL:  "https://a.example/",
		Text: "We're hiring. " + filler + "See our open positions.",
	}

	h := c.scan([]types.FetchedPage{page})

	require.Len(t, h.positive, 2)
	assert.True(t, h.unambiguous())
}

func TestFindAll_DropsNestedSpans(t *testing.T) {
	m := NewMatcher(DefaultConfig().Vocabulary)
	text := "Yes, we're hiring engineers"

	spans := m.positiveSpans(text, m.negativeSpans(text))

	require.Len(t, spans, 1)
	assert.Equal(t, "we're hiring", text[spans[0].start:spans[0].end])
}

func TestValidateCitations(t *testing.T) {
	pages := []types.FetchedPage{
		{URL: "https://a.example/", Text: "Acme builds boats. We're hiring."},
		{URL: "https://a.example/careers", Text: "Open positions: Welder, Turku"},
	}

	valid, dropped := ValidateCitations([]Citation{
		{Snippet: "We're hiring.", URL: "https://a.example/"},
		{Snippet: "Open positions:  Welder", URL: ""},
		{Snippet: "Welder, Turku", URL: "https://elsewhere.example/"},
		{Snippet: "Acme builds boats.", URL: "https://a.example/careers"},
		{Snippet: "", URL: "https://a.example/"},
		{Snippet: "We're hiring.", URL: "https://a.example/"},
	}, pages)

	assert.Equal(t, []types.EvidenceItem{
		{Snippet: "We're hiring.", URL: "https://a.example/"},
		{Snippet: "Open positions: Welder", URL: "https://a.example/careers"},
		{Snippet: "Welder, Turku", URL: "https://a.example/careers"},
	}, valid)
	assert.Equal(t, 2, dropped)
}

func TestPromptVersion(t *testing.T) {
	v := PromptVersion()
	assert.Len(t, v, 8)
	assert.Equal(t, v, PromptVersion())
}
