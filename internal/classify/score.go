package classify

import "github.com/jonathan/hiring-signal/internal/types"

// Scorer turns evidence strength into a confidence value.
type Scorer struct {
	s Scoring
}

// NewScorer creates a Scorer. Negative weights are treated as zero so the
// score never decreases as evidence grows.
func NewScorer(s Scoring) Scorer {
	if s.PerCitation < 0 {
		s.PerCitation = 0
	}
	if s.AgreementBonus < 0 {
		s.AgreementBonus = 0
	}
	if s.Max <= 0 || s.Max > 1 {
		s.Max = 1
	}
	return Scorer{s: s}
}

// Score returns the confidence of a committed verdict backed by n evidence
// items. agree is set when the heuristic lean and the fallback verdict match.
func (sc Scorer) Score(n int, agree bool, source types.WebsiteSource) float64 {
	if n < types.MinEvidence {
		return 0
	}
	extra := n - types.MinEvidence
	if extra > types.MaxEvidence-types.MinEvidence {
		extra = types.MaxEvidence - types.MinEvidence
	}

	v := sc.s.Base + sc.s.PerCitation*float64(extra)
	if agree {
		v += sc.s.AgreementBonus
	}
	v *= sc.multiplier(source)
	return clamp(v, 0, sc.s.Max)
}

func (sc Scorer) multiplier(source types.WebsiteSource) float64 {
	m, ok := sc.s.SourceMultipliers[source]
	if !ok {
		return 1
	}
	return clamp(m, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
