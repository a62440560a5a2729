package classify

import (
	"errors"
	"net/url"

	"github.com/jonathan/hiring-signal/internal/fetch"
	"github.com/jonathan/hiring-signal/internal/types"
)

// Gate enforces the evidence rules on a candidate verdict and returns a new
// result; the input is not modified. A yes or no verdict survives only with
// 2 to 6 items that each carry a snippet and URL, and, when m is non-nil,
// with at least one snippet in the vocabulary of its polarity. Anything else
// is returned as unclear with confidence 0 and the reason in SkippedReasons.
func Gate(r types.ClassificationResult, m *Matcher) types.ClassificationResult {
	out := clone(r)

	if !out.Signal.Committed() {
		out.Signal = types.SignalUnclear
		out.Confidence = 0
		out.SignalURL = ""
		if len(out.Errors) == 0 && len(out.SkippedReasons) == 0 {
			out.SkippedReasons = append(out.SkippedReasons, types.ReasonNoHiringSignal)
		}
		return out
	}

	out.Evidence = capEvidence(out.Evidence)
	if err := CheckEvidence(out, m); err != nil {
		var evErr *EvidenceError
		if errors.As(err, &evErr) {
			return downgrade(out, evErr.Reason, true)
		}
	}

	out.Confidence = clamp(out.Confidence, 0, 1)
	out.SignalURL = out.Evidence[0].URL
	return out
}

// EvidenceError reports why a committed verdict failed the evidence rules.
// It matches types.ErrEvidenceInsufficient.
type EvidenceError struct {
	Reason string
}

func (e *EvidenceError) Error() string {
	return "evidence insufficient: " + e.Reason
}

func (e *EvidenceError) Is(target error) bool {
	return target == types.ErrEvidenceInsufficient
}

// CheckEvidence returns an *EvidenceError when the evidence of a committed
// verdict breaks the rules Gate enforces. Uncommitted verdicts pass.
func CheckEvidence(r types.ClassificationResult, m *Matcher) error {
	if !r.Signal.Committed() {
		return nil
	}
	evidence := capEvidence(r.Evidence)
	if len(evidence) < types.MinEvidence {
		return &EvidenceError{Reason: types.ReasonInsufficient}
	}
	for _, e := range evidence {
		if e.Snippet == "" || e.URL == "" {
			return &EvidenceError{Reason: types.ReasonInsufficient}
		}
	}
	if m != nil && !consistent(r.Signal, evidence, m) {
		return &EvidenceError{Reason: types.ReasonGenericEvidence}
	}
	return nil
}

// CapInferred downgrades a committed verdict for a website found by an
// inferred lookup unless at least two evidence items are first-party, that is
// hosted on siteURL's domain or one of its subdomains.
func CapInferred(r types.ClassificationResult, source types.WebsiteSource, siteURL string) types.ClassificationResult {
	out := clone(r)
	if source != types.SourceInferredSearch || !out.Signal.Committed() {
		return out
	}

	domain := fetch.SiteDomain(siteURL)
	firstParty := 0
	for _, e := range out.Evidence {
		u, err := url.Parse(e.URL)
		if err == nil && fetch.SameSite(u.Hostname(), domain) {
			firstParty++
		}
	}
	if firstParty >= types.MinEvidence {
		return out
	}
	return downgrade(out, types.ReasonInferredCap, false)
}

func consistent(s types.Signal, evidence []types.EvidenceItem, m *Matcher) bool {
	for _, e := range evidence {
		if s == types.SignalYes && m.HasPositive(e.Snippet) {
			return true
		}
		if s == types.SignalNo && m.HasNegative(e.Snippet) {
			return true
		}
	}
	return false
}

func downgrade(r types.ClassificationResult, reason string, dropEvidence bool) types.ClassificationResult {
	r.Signal = types.SignalUnclear
	r.Confidence = 0
	r.SignalURL = ""
	if dropEvidence {
		r.Evidence = nil
	}
	r.SkippedReasons = append(r.SkippedReasons, reason)
	return r
}

func clone(r types.ClassificationResult) types.ClassificationResult {
	r.Evidence = append([]types.EvidenceItem(nil), r.Evidence...)
	r.Errors = append([]string(nil), r.Errors...)
	r.SkippedReasons = append([]string(nil), r.SkippedReasons...)
	return r
}
