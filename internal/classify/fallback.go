package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/hiring-signal/internal/prompts"
	"github.com/jonathan/hiring-signal/internal/types"
	"github.com/jonathan/hiring-signal/internal/validation"
)

// Citation is a snippet the inference model claims supports its verdict.
type Citation struct {
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Inference is the raw, untrusted answer of an Inferer.
type Inference struct {
	Verdict   types.Signal
	Citations []Citation
}

// Inferer is a fallback model. Implementations must honor ctx and may
// return malformed or invented citations; the classifier validates them.
type Inferer interface {
	Infer(ctx context.Context, prompt, text string) (*Inference, error)
	// Info describes the provider and sampling settings for output provenance.
	Info() types.InferenceInfo
}

const promptFile = "classify.json"

// SystemPrompt returns the fallback system prompt.
func SystemPrompt() string {
	return prompts.MustGet(promptFile, "system")
}

// PromptVersion identifies the wording of the fallback prompts.
func PromptVersion() string {
	v, err := prompts.Version(promptFile, "system", "user")
	if err != nil {
		panic(fmt.Sprintf("failed to version prompt: %v", err))
	}
	return v
}

// buildUserPrompt excerpts and quotes each page for the fallback.
func (c *Classifier) buildUserPrompt(crawlURL string, pages []types.FetchedPage) string {
	var sb strings.Builder
	for i, page := range pages {
		excerpt := truncateRunes(page.Text, c.cfg.MaxExcerptChars)
		check := validation.CheckBasicHeuristics(excerpt)
		if !check.IsSafe {
			validation.LogInjectionWarning(c.log, check, page.URL)
			excerpt = validation.StripInjectionAttempts(excerpt)
		}

		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Page %d (%s): %s\n", i+1, page.Kind, page.URL)
		sb.WriteString(validation.QuoteExternalContentWithLabel(excerpt, "page text"))
	}

	return prompts.Format(prompts.MustGet(promptFile, "user"), map[string]string{
		"URL":   crawlURL,
		"Pages": sb.String(),
	})
}

// ValidateCitations keeps the citations whose snippet occurs literally in a
// fetched page. A citation naming a fetched page must occur in that page; a
// citation with no URL or an unknown URL is attributed to the first page
// containing it. The second return value is the number discarded.
func ValidateCitations(citations []Citation, pages []types.FetchedPage) ([]types.EvidenceItem, int) {
	var valid []types.EvidenceItem
	seen := make(map[types.EvidenceItem]bool)
	dropped := 0

	for _, cit := range citations {
		snippet := strings.Join(strings.Fields(cit.Snippet), " ")
		pageURL, ok := locate(snippet, strings.TrimSpace(cit.URL), pages)
		if !ok {
			dropped++
			continue
		}
		item := types.EvidenceItem{Snippet: snippet, URL: pageURL}
		if seen[item] {
			continue
		}
		seen[item] = true
		valid = append(valid, item)
	}
	return valid, dropped
}

func locate(snippet, citedURL string, pages []types.FetchedPage) (string, bool) {
	if snippet == "" {
		return "", false
	}
	for _, p := range pages {
		if p.URL == citedURL {
			return p.URL, strings.Contains(p.Text, snippet)
		}
	}
	for _, p := range pages {
		if strings.Contains(p.Text, snippet) {
			return p.URL, true
		}
	}
	return "", false
}

// mergeEvidence appends the items of extra not already in base, keeping order.
func mergeEvidence(base, extra []types.EvidenceItem) []types.EvidenceItem {
	out := append([]types.EvidenceItem(nil), base...)
	seen := make(map[types.EvidenceItem]bool, len(out))
	for _, e := range out {
		seen[e] = true
	}
	for _, e := range extra {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return capEvidence(out)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
