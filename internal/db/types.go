package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one scan run.
type Run struct {
	ID          string     `json:"id"`
	ToolVersion string     `json:"tool_version"`
	GitSHA      string     `json:"git_sha"`
	Status      string     `json:"status"`
	Companies   int        `json:"companies"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CompanyResult is a stored output record.
type CompanyResult struct {
	ID          uuid.UUID `json:"id"`
	RunID       string    `json:"run_id"`
	BusinessID  string    `json:"business_id"`
	Domain      *string   `json:"domain,omitempty"`
	Signal      string    `json:"signal"`
	Confidence  float64   `json:"confidence"`
	CrawlStatus string    `json:"crawl_status"`
	Record      []byte    `json:"record"`
	CreatedAt   time.Time `json:"created_at"`
}
