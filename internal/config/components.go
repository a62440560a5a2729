package config

import (
	"github.com/jonathan/hiring-signal/internal/classify"
	"github.com/jonathan/hiring-signal/internal/crawling"
	"github.com/jonathan/hiring-signal/internal/fetch"
	"github.com/jonathan/hiring-signal/internal/llm"
	"github.com/jonathan/hiring-signal/internal/resolve"
	"github.com/jonathan/hiring-signal/internal/types"
)

// FetchOptions returns the HTTP client options.
func (c *Config) FetchOptions() *fetch.Options {
	return &fetch.Options{
		Timeout:   c.Fetch.Timeout.D(),
		UserAgent: c.Fetch.UserAgent,
		MaxBytes:  c.Fetch.MaxBytes,
	}
}

// RobotsConfig returns the robots cache configuration.
func (c *Config) RobotsConfig() fetch.RobotsConfig {
	return fetch.RobotsConfig{
		Mode:      fetch.RobotsMode(c.Robots.Mode),
		Allowlist: c.Robots.Allowlist,
		Timeout:   c.Robots.Timeout.D(),
	}
}

// CrawlConfig returns the crawler configuration.
func (c *Config) CrawlConfig() crawling.Config {
	return crawling.Config{
		MaxPagesPerCompany: c.Crawl.MaxPagesPerCompany,
		MaxTextChars:       c.Fetch.MaxTextChars,
		CareersHints:       c.Crawl.CareersHints,
		UseBrowser:         c.Crawl.UseBrowser,
	}
}

// ResolveConfig returns the resolver configuration.
func (c *Config) ResolveConfig() resolve.Config {
	return resolve.Config{AllowInferred: c.Resolver.AllowInferred}
}

// ClassifyConfig returns the classifier configuration.
func (c *Config) ClassifyConfig() classify.Config {
	cl := c.Classifier
	multipliers := make(map[types.WebsiteSource]float64, len(cl.Scoring.SourceMultipliers))
	for k, v := range cl.Scoring.SourceMultipliers {
		multipliers[types.WebsiteSource(k)] = v
	}
	return classify.Config{
		Vocabulary: classify.Vocabulary{
			Positive: cl.PositivePhrases,
			Negative: cl.NegativePhrases,
		},
		Scoring: classify.Scoring{
			Base:              cl.Scoring.Base,
			PerCitation:       cl.Scoring.PerCitation,
			AgreementBonus:    cl.Scoring.AgreementBonus,
			Max:               cl.Scoring.Max,
			SourceMultipliers: multipliers,
		},
		SnippetWindow:      cl.SnippetWindow,
		MaxSnippetsPerPage: cl.MaxSnippetsPerPage,
		MaxExcerptChars:    cl.MaxExcerptChars,
	}
}

// LLMConfig returns the fallback model configuration, or nil when
// inference is disabled.
func (c *Config) LLMConfig() *llm.Config {
	if !c.Inference.Enabled {
		return nil
	}
	in := c.Inference
	return &llm.Config{
		Provider:      llm.Provider(in.Provider),
		Host:          in.Host,
		Model:         in.Model,
		Temperature:   in.Temperature,
		NumPredict:    in.NumPredict,
		Timeout:       in.Timeout.D(),
		Deterministic: in.Deterministic,
	}
}
