// Package jobs extracts job listings from careers pages and compares
// listing snapshots across runs.
package jobs

import (
	"regexp"
	"strings"

	"github.com/jonathan/hiring-signal/internal/types"
)

// CountryTokens are trailing location qualifiers that carry no identity.
// Only the home country is listed: "Remote, Sweden" and "Remote, Estonia"
// are different postings.
var CountryTokens = []string{
	"remote - finland", "finland", "suomi",
}

var punctuation = strings.NewReplacer(
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "−", "-",
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
	"\u00a0", " ",
)

const trailingSeparators = " ,;:/|-·•"

var countrySuffix = buildCountrySuffix(CountryTokens)

func buildCountrySuffix(tokens []string) *regexp.Regexp {
	alts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		fields := strings.Fields(t)
		for i, f := range fields {
			fields[i] = regexp.QuoteMeta(f)
		}
		alts = append(alts, strings.Join(fields, `\s*`))
	}
	return regexp.MustCompile(`\s*[,/-]\s*(?:` + strings.Join(alts, "|") + `)$`)
}

// Fingerprint returns the identity of a listing: title and location are
// lowercased, punctuation variants unified, whitespace collapsed and
// trailing separators removed. Country qualifiers are removed from the
// location only; in a title they name a different role.
func Fingerprint(l types.JobListing) types.JobFingerprint {
	return types.JobFingerprint(normalize(l.Title) + "|" + normalizeLocation(l.Location))
}

func normalize(s string) string {
	s = punctuation.Replace(strings.ToLower(s))
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, trailingSeparators)
}

func normalizeLocation(s string) string {
	s = normalize(s)
	for {
		stripped := strings.TrimRight(countrySuffix.ReplaceAllString(s, ""), trailingSeparators)
		if stripped == s {
			return s
		}
		s = stripped
	}
}
