// Package resolve turns a company record into a single trusted website.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/hiring-signal/internal/fetch"
	"github.com/jonathan/hiring-signal/internal/logging"
	"github.com/jonathan/hiring-signal/internal/types"
)

// Searcher is an opt-in website lookup for companies without a known site.
// Lookup returns an empty string when it has no answer.
type Searcher interface {
	Lookup(ctx context.Context, company types.CompanyRecord) (string, error)
	Name() string
}

// Config configures the resolver ladder.
type Config struct {
	AllowInferred bool
}

// Resolver applies the ladder user, places, inferred lookup, unknown.
type Resolver struct {
	cfg      Config
	searcher Searcher
	log      *slog.Logger
}

// New creates a Resolver. searcher may be nil.
func New(cfg Config, searcher Searcher, log *slog.Logger) *Resolver {
	return &Resolver{cfg: cfg, searcher: searcher, log: logging.OrDiscard(log)}
}

// Resolve returns the website for company. It never fails: a company with
// no usable website resolves to source unknown with an empty URL.
func (r *Resolver) Resolve(ctx context.Context, company types.CompanyRecord) types.ResolvedWebsite {
	var notes []string

	if u, ok := candidate("user", company.Website, &notes); ok {
		return site(u, types.SourceUser, notes)
	}
	if u, ok := candidate("places", company.PlacesWebsite, &notes); ok {
		return site(u, types.SourcePlaces, notes)
	}

	if r.cfg.AllowInferred && r.searcher != nil {
		found, err := r.searcher.Lookup(ctx, company)
		if err != nil {
			r.log.Warn("website lookup failed", "business_id", company.BusinessID, "searcher", r.searcher.Name(), "error", err)
			notes = append(notes, fmt.Sprintf("lookup %s failed: %v", r.searcher.Name(), err))
		} else if u, ok := candidate("lookup "+r.searcher.Name(), found, &notes); ok {
			notes = append(notes, "inferred via "+r.searcher.Name())
			return site(u, types.SourceInferredSearch, notes)
		}
	}

	notes = append(notes, types.ReasonNoWebsite)
	return site("", types.SourceUnknown, notes)
}

// candidate normalizes raw. A non-empty value that does not parse is noted
// and skipped so the ladder can fall through.
func candidate(label, raw string, notes *[]string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	u, ok := fetch.NormalizeURL(raw)
	if !ok {
		*notes = append(*notes, fmt.Sprintf("rejected %s website %q", label, strings.TrimSpace(raw)))
		return "", false
	}
	return u, true
}

func site(u string, source types.WebsiteSource, notes []string) types.ResolvedWebsite {
	return types.ResolvedWebsite{URL: u, Source: source, Notes: strings.Join(notes, "; ")}
}
