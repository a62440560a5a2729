package types

import "fmt"

// Signal is the hiring verdict for a company.
type Signal string

const (
	// SignalYes means the company is actively hiring
	SignalYes Signal = "yes"
	// SignalNo means the company states it is not hiring
	SignalNo Signal = "no"
	// SignalUnclear means the evidence does not support either verdict
	SignalUnclear Signal = "unclear"
)

// Committed reports whether the signal asserts yes or no.
func (s Signal) Committed() bool {
	return s == SignalYes || s == SignalNo
}

// MinEvidence and MaxEvidence bound the evidence set of a committed verdict.
const (
	MinEvidence = 2
	MaxEvidence = 6
)

// EvidenceItem is a literal excerpt of fetched content and the page it came from.
type EvidenceItem struct {
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// ClassificationResult is the verdict for one company.
type ClassificationResult struct {
	Signal         Signal         `json:"signal"`
	Confidence     float64        `json:"confidence"`
	Evidence       []EvidenceItem `json:"evidence"`
	SignalURL      string         `json:"signal_url,omitempty"`
	LLMUsed        bool           `json:"llm_used"`
	Errors         []string       `json:"errors"`
	SkippedReasons []string       `json:"skipped_reasons"`
}

// Check verifies the result invariants. It is used by tests and by the
// coordinator before a record is emitted.
func (r *ClassificationResult) Check() error {
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", r.Confidence)
	}
	if !r.Signal.Committed() {
		if r.Signal != SignalUnclear {
			return fmt.Errorf("unknown signal %q", r.Signal)
		}
		return nil
	}
	if n := len(r.Evidence); n < MinEvidence || n > MaxEvidence {
		return fmt.Errorf("signal %s carries %d evidence items, want %d..%d", r.Signal, n, MinEvidence, MaxEvidence)
	}
	for i, e := range r.Evidence {
		if e.Snippet == "" || e.URL == "" {
			return fmt.Errorf("evidence item %d is missing snippet or url", i)
		}
	}
	return nil
}
