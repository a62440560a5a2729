package types

import "errors"

// Error taxonomy shared by the pipeline stages. None of these abort a run;
// each is converted to a reason string on the company's output record.
var (
	ErrResolutionAmbiguous  = errors.New("no website could be resolved")
	ErrRobotsUnavailable    = errors.New("robots directives unavailable")
	ErrRobotsDisallowed     = errors.New("disallowed by robots directives")
	ErrFetchFailure         = errors.New("fetch failed")
	ErrEvidenceInsufficient = errors.New("evidence insufficient")
	ErrInferenceUnavailable = errors.New("inference unavailable")
	ErrBudgetExhausted      = errors.New("budget exhausted")
)

// Reason strings recorded in errors and skipped_reasons.
const (
	ReasonNoWebsite         = "no_website"
	ReasonRobotsUnavailable = "robots_unavailable"
	ReasonRobotsDisallowAll = "robots_disallow_all"
	ReasonRobotsDisallowURL = "robots_disallow_url"
	ReasonDomainBudget      = "domain_budget"
	ReasonDomainCap         = "domain_cap"
	ReasonCompanyBudget     = "company_budget"
	ReasonRunDeadline       = "run_deadline"
	ReasonNoHiringSignal    = "no_hiring_signal"
	ReasonAmbiguous         = "ambiguous_heuristic"
	ReasonInferenceDown     = "inference_unavailable"
	ReasonFallbackUnclear   = "fallback_unclear"
	ReasonInsufficient      = "insufficient_evidence"
	ReasonGenericEvidence   = "generic_evidence"
	ReasonInferredCap       = "inferred_source_cap"
	ReasonCitationsDropped  = "citations_discarded"
)
