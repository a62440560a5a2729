package types

// Record types distinguish lines in the JSONL output.
const (
	RecordTypeCompany    = "company"
	RecordTypeProvenance = "provenance"
)

// InferenceInfo describes the fallback model configuration used for a record.
type InferenceInfo struct {
	Provider      string  `json:"provider"`
	Model         string  `json:"model,omitempty"`
	Temperature   float64 `json:"temperature"`
	PromptVersion string  `json:"prompt_version,omitempty"`
	Deterministic bool    `json:"deterministic"`
}

// CompanyReport is the output record for one company.
type CompanyReport struct {
	RecordType     string          `json:"record_type"`
	RunID          string          `json:"run_id"`
	BusinessID     string          `json:"business_id"`
	Name           string          `json:"name"`
	Website        ResolvedWebsite `json:"website"`
	CrawlStatus    CrawlStatus     `json:"crawl_status"`
	CheckedURLs    []string        `json:"checked_urls"`
	ATSPlatform    string          `json:"ats_platform,omitempty"`
	Signal         Signal          `json:"signal"`
	Confidence     float64         `json:"confidence"`
	Evidence       []EvidenceItem  `json:"evidence"`
	SignalURL      string          `json:"signal_url,omitempty"`
	LLMUsed        bool            `json:"llm_used"`
	Errors         []string        `json:"errors"`
	SkippedReasons []string        `json:"skipped_reasons"`
	Inference      InferenceInfo   `json:"inference"`
	Jobs           *JobsSummary    `json:"jobs,omitempty"`
}

// RunProvenance is the footer emitted once per run.
type RunProvenance struct {
	RecordType   string `json:"record_type"`
	RunID        string `json:"run_id"`
	ToolVersion  string `json:"tool_version"`
	GitSHA       string `json:"git_sha"`
	CrawlTS      string `json:"crawl_ts"`
	Companies    int    `json:"companies"`
	OutputFormat string `json:"output_format"`
}

// Report is the full result of a run as validated against the output schema.
type Report struct {
	Records    []CompanyReport `json:"records"`
	Provenance RunProvenance   `json:"provenance"`
}
