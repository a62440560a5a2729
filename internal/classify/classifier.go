package classify

import (
	"context"
	"log/slog"

	"github.com/jonathan/hiring-signal/internal/logging"
	"github.com/jonathan/hiring-signal/internal/types"
)

// Classifier produces a ClassificationResult from a crawl.
type Classifier struct {
	cfg     Config
	matcher *Matcher
	scorer  Scorer
	inferer Inferer
	log     *slog.Logger
}

// New creates a Classifier. inferer may be nil, in which case ambiguous
// pages are reported as unclear without a fallback.
func New(cfg Config, inferer Inferer, log *slog.Logger) *Classifier {
	cfg = cfg.withDefaults()
	return &Classifier{
		cfg:     cfg,
		matcher: NewMatcher(cfg.Vocabulary),
		scorer:  NewScorer(cfg.Scoring),
		inferer: inferer,
		log:     logging.OrDiscard(log),
	}
}

// InferenceInfo describes the fallback configuration, or reports "none".
func (c *Classifier) InferenceInfo() types.InferenceInfo {
	if c.inferer == nil {
		return types.InferenceInfo{Provider: "none"}
	}
	info := c.inferer.Info()
	info.PromptVersion = PromptVersion()
	return info
}

// Classify decides the hiring signal for crawl. It never fails; the reasons
// for an unclear result are recorded in Errors or SkippedReasons.
func (c *Classifier) Classify(ctx context.Context, crawl types.CrawlResult, source types.WebsiteSource) types.ClassificationResult {
	if crawl.Status != types.CrawlOK {
		r := types.ClassificationResult{
			Signal:         types.SignalUnclear,
			Errors:         append([]string(nil), crawl.Errors...),
			SkippedReasons: append([]string(nil), crawl.SkippedReasons...),
		}
		// an exhausted budget is a recorded skip, not a failure
		if crawl.Status != types.CrawlSkipped {
			r.Errors = append([]string{"crawl_" + string(crawl.Status)}, r.Errors...)
		}
		return c.finish(r, source, crawl.URL)
	}

	h := c.scan(crawl.Pages)
	if h.unambiguous() {
		lean := h.lean()
		items := h.items(lean)
		return c.finish(types.ClassificationResult{
			Signal:     lean,
			Confidence: c.scorer.Score(len(items), false, source),
			Evidence:   items,
		}, source, crawl.URL)
	}

	if c.inferer == nil {
		return c.finish(c.heuristicOnly(h, source), source, crawl.URL)
	}

	inf, err := c.inferer.Infer(ctx, SystemPrompt(), c.buildUserPrompt(crawl.URL, crawl.Pages))
	if err != nil {
		c.log.Warn("inference unavailable", "url", crawl.URL, "error", err)
		r := c.heuristicOnly(h, source)
		r.Errors = append(r.Errors, types.ReasonInferenceDown+": "+err.Error())
		return c.finish(r, source, crawl.URL)
	}

	evidence, dropped := ValidateCitations(inf.Citations, crawl.Pages)
	r := types.ClassificationResult{LLMUsed: true}
	if dropped > 0 {
		c.log.Debug("discarded unsupported citations", "url", crawl.URL, "count", dropped)
		r.Errors = append(r.Errors, types.ReasonCitationsDropped)
	}

	if !inf.Verdict.Committed() {
		r.Signal = types.SignalUnclear
		r.Evidence = capEvidence(evidence)
		r.SkippedReasons = append(r.SkippedReasons, types.ReasonFallbackUnclear)
		return c.finish(r, source, crawl.URL)
	}

	agree := inf.Verdict == h.lean()
	if agree {
		evidence = mergeEvidence(evidence, h.items(inf.Verdict))
	}
	r.Signal = inf.Verdict
	r.Evidence = capEvidence(evidence)
	r.Confidence = c.scorer.Score(len(r.Evidence), agree, source)
	return c.finish(r, source, crawl.URL)
}

// heuristicOnly is the scan's own verdict when no fallback answer is
// available. A single-polarity lean with too few snippets is left for the
// gate to reject.
func (c *Classifier) heuristicOnly(h heuristicResult, source types.WebsiteSource) types.ClassificationResult {
	switch lean := h.lean(); {
	case lean.Committed():
		items := h.items(lean)
		return types.ClassificationResult{
			Signal:     lean,
			Confidence: c.scorer.Score(len(items), false, source),
			Evidence:   items,
		}
	case h.empty():
		return types.ClassificationResult{
			Signal:         types.SignalUnclear,
			SkippedReasons: []string{types.ReasonNoHiringSignal},
		}
	default:
		return types.ClassificationResult{
			Signal:         types.SignalUnclear,
			SkippedReasons: []string{types.ReasonAmbiguous},
		}
	}
}

func (c *Classifier) finish(r types.ClassificationResult, source types.WebsiteSource, siteURL string) types.ClassificationResult {
	if err := CheckEvidence(r, c.matcher); err != nil {
		c.log.Debug("verdict downgraded", "url", siteURL, "signal", r.Signal, "error", err)
	}
	return CapInferred(Gate(r, c.matcher), source, siteURL)
}
