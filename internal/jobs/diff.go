package jobs

import "github.com/jonathan/hiring-signal/internal/types"

// Diff compares two snapshots by fingerprint. New and Removed keep the order
// of current and previous respectively.
func Diff(previous, current []types.JobListing) types.DiffResult {
	prevSet := fingerprints(previous)
	currSet := fingerprints(current)

	result := types.DiffResult{
		New:     []types.JobListing{},
		Removed: []types.JobListing{},
	}
	for _, l := range current {
		if prevSet[Fingerprint(l)] {
			result.UnchangedCount++
		} else {
			result.New = append(result.New, l)
		}
	}
	for _, l := range previous {
		if !currSet[Fingerprint(l)] {
			result.Removed = append(result.Removed, l)
		}
	}
	return result
}

// Summary condenses a diff for an output record. hasPrior is false when no
// earlier snapshot existed, in which case only the listing count is set.
func Summary(current []types.JobListing, d types.DiffResult, hasPrior bool) *types.JobsSummary {
	s := &types.JobsSummary{Listings: len(current), HasPrior: hasPrior}
	if hasPrior {
		s.New = len(d.New)
		s.Removed = len(d.Removed)
		s.Unchanged = d.UnchangedCount
	}
	return s
}

// Dedupe drops listings whose fingerprint was already seen, keeping the first.
func Dedupe(listings []types.JobListing) []types.JobListing {
	seen := make(map[types.JobFingerprint]bool, len(listings))
	out := make([]types.JobListing, 0, len(listings))
	for _, l := range listings {
		fp := Fingerprint(l)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, l)
	}
	return out
}

func fingerprints(listings []types.JobListing) map[types.JobFingerprint]bool {
	set := make(map[types.JobFingerprint]bool, len(listings))
	for _, l := range listings {
		set[Fingerprint(l)] = true
	}
	return set
}
