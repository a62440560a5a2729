package types

// JobListing is a single posting seen on a careers page during a run.
type JobListing struct {
	Title    string `json:"title" bson:"title"`
	Location string `json:"location,omitempty" bson:"location,omitempty"`
	URL      string `json:"url,omitempty" bson:"url,omitempty"`
	RawText  string `json:"raw_text,omitempty" bson:"raw_text,omitempty"`
}

// JobFingerprint is the normalized identity of a listing across runs.
type JobFingerprint string

// DiffResult compares two snapshots of a company's listings.
type DiffResult struct {
	New            []JobListing `json:"new"`
	Removed        []JobListing `json:"removed"`
	UnchangedCount int          `json:"unchanged_count"`
}

// JobsSummary is the diff information attached to an output record.
type JobsSummary struct {
	Listings  int  `json:"listings"`
	New       int  `json:"new"`
	Removed   int  `json:"removed"`
	Unchanged int  `json:"unchanged"`
	HasPrior  bool `json:"has_prior"`
}

// Snapshot is the persisted set of listings for one company from one run.
type Snapshot struct {
	BusinessID string       `json:"business_id" bson:"business_id"`
	RunID      string       `json:"run_id" bson:"run_id"`
	Listings   []JobListing `json:"listings" bson:"listings"`
}
