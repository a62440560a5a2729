// Package classify decides whether a crawled company is hiring. A heuristic
// phrase scan runs first; an optional inference fallback handles ambiguous
// pages; every candidate verdict then passes the evidence gate.
package classify

import "github.com/jonathan/hiring-signal/internal/types"

// DefaultPositivePhrases is the hiring-intent vocabulary.
var DefaultPositivePhrases = []string{
	"we're hiring", "we are hiring", "hiring", "join our team", "join us",
	"open positions", "open roles", "openings", "apply now", "apply",
	"job", "jobs", "career", "careers", "vacancies",
	"rekry", "rekrytointi", "ura", "tyopaikat", "työpaikat",
	"avoin tehtava", "avoin tehtävä", "avoimet työpaikat", "hae tahan", "hae tähän",
}

// DefaultNegativePhrases is the rejection vocabulary.
var DefaultNegativePhrases = []string{
	"no open positions", "no openings", "no vacancies", "no open roles",
	"not hiring", "not recruiting", "positions closed", "positions are closed",
	"ei avoimia", "ei avoimia paikkoja", "ei avoimia työpaikkoja",
}

// Vocabulary holds the phrase lists the heuristic pass matches.
type Vocabulary struct {
	Positive []string
	Negative []string
}

// Scoring parameterizes confidence for committed verdicts.
type Scoring struct {
	Base           float64
	PerCitation    float64
	AgreementBonus float64
	Max            float64
	// SourceMultipliers scales confidence by website provenance tier.
	SourceMultipliers map[types.WebsiteSource]float64
}

// Config configures a Classifier.
type Config struct {
	Vocabulary         Vocabulary
	Scoring            Scoring
	SnippetWindow      int
	MaxSnippetsPerPage int
	MaxExcerptChars    int
}

// DefaultScoring returns the default confidence parameters.
func DefaultScoring() Scoring {
	return Scoring{
		Base:           0.6,
		PerCitation:    0.05,
		AgreementBonus: 0.15,
		Max:            0.95,
		SourceMultipliers: map[types.WebsiteSource]float64{
			types.SourceUser:           1.0,
			types.SourcePlaces:         0.95,
			types.SourceInferredSearch: 0.75,
		},
	}
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() Config {
	return Config{
		Vocabulary: Vocabulary{
			Positive: append([]string(nil), DefaultPositivePhrases...),
			Negative: append([]string(nil), DefaultNegativePhrases...),
		},
		Scoring:            DefaultScoring(),
		SnippetWindow:      80,
		MaxSnippetsPerPage: 3,
		MaxExcerptChars:    2000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Vocabulary.Positive) == 0 {
		c.Vocabulary.Positive = d.Vocabulary.Positive
	}
	if len(c.Vocabulary.Negative) == 0 {
		c.Vocabulary.Negative = d.Vocabulary.Negative
	}
	if c.Scoring.Max == 0 {
		c.Scoring = d.Scoring
	}
	if c.SnippetWindow <= 0 {
		c.SnippetWindow = d.SnippetWindow
	}
	if c.MaxSnippetsPerPage <= 0 {
		c.MaxSnippetsPerPage = d.MaxSnippetsPerPage
	}
	if c.MaxExcerptChars <= 0 {
		c.MaxExcerptChars = d.MaxExcerptChars
	}
	return c
}
