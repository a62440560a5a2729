package schemas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-signal/internal/types"
)

const personSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer"}
	}
}`

func validReport() *types.Report {
	return &types.Report{
		Records: []types.CompanyReport{
			{
				RecordType:  types.RecordTypeCompany,
				RunID:       "20261015_101500_ab12",
				BusinessID:  "1234567-8",
				Name:        "Acme Oy",
				Website:     types.ResolvedWebsite{URL: "https://a.example/", Source: types.SourceUser},
				CrawlStatus: types.CrawlOK,
				CheckedURLs: []string{"https://a.example/", "https://a.example/careers"},
				Signal:      types.SignalYes,
				Confidence:  0.6,
				Evidence: []types.EvidenceItem{
					{Snippet: "We're hiring", URL: "https://a.example/"},
					{Snippet: "Open positions: Backend Engineer", URL: "https://a.example/careers"},
				},
				SignalURL:      "https://a.example/",
				Errors:         []string{},
				SkippedReasons: []string{},
				Inference:      types.InferenceInfo{Provider: "none"},
			},
			{
				RecordType:     types.RecordTypeCompany,
				RunID:          "20261015_101500_ab12",
				BusinessID:     "2",
				Name:           "Nowhere Oy",
				Website:        types.ResolvedWebsite{Source: types.SourceUnknown, Notes: types.ReasonNoWebsite},
				CrawlStatus:    types.CrawlSkipped,
				CheckedURLs:    []string{},
				Signal:         types.SignalUnclear,
				Evidence:       []types.EvidenceItem{},
				Errors:         []string{},
				SkippedReasons: []string{types.ReasonNoWebsite},
				Inference:      types.InferenceInfo{Provider: "none"},
			},
		},
		Provenance: types.RunProvenance{
			RecordType:   types.RecordTypeProvenance,
			RunID:        "20261015_101500_ab12",
			ToolVersion:  "dev",
			GitSHA:       "unknown",
			CrawlTS:      "2026-10-15T10:15:00Z",
			Companies:    2,
			OutputFormat: "jsonl",
		},
	}
}

func TestValidateReport_Valid(t *testing.T) {
	assert.NoError(t, ValidateReport(validReport()))
}

func TestValidateReport_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *types.Report)
	}{
		{name: "committed with one evidence item", mutate: func(r *types.Report) { r.Records[0].Evidence = r.Records[0].Evidence[:1] }},
		{name: "confidence above one", mutate: func(r *types.Report) { r.Records[0].Confidence = 1.2 }},
		{name: "unclear with confidence", mutate: func(r *types.Report) { r.Records[1].Confidence = 0.4 }},
		{name: "nil evidence", mutate: func(r *types.Report) { r.Records[1].Evidence = nil }},
		{name: "empty snippet", mutate: func(r *types.Report) { r.Records[0].Evidence[1].Snippet = "" }},
		{name: "unknown source with url", mutate: func(r *types.Report) { r.Records[1].Website.URL = "https://x.example/" }},
		{name: "user source without url", mutate: func(r *types.Report) { r.Records[0].Website.URL = "" }},
		{name: "skipped without reason", mutate: func(r *types.Report) { r.Records[1].SkippedReasons = []string{} }},
		{name: "skipped with committed signal", mutate: func(r *types.Report) { r.Records[1].Signal = types.SignalNo }},
		{name: "bad run id", mutate: func(r *types.Report) { r.Provenance.RunID = "run-1" }},
		{name: "bad timestamp", mutate: func(r *types.Report) { r.Provenance.CrawlTS = "yesterday" }},
		{
			name: "deterministic with temperature",
			mutate: func(r *types.Report) {
				r.Records[0].Inference = types.InferenceInfo{Provider: "ollama", Temperature: 0.1, Deterministic: true}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReport()
			tt.mutate(r)
			err := ValidateReport(r)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
			assert.NotEmpty(t, verr.Errors)
		})
	}
}

func TestValidateReport_WithJobs(t *testing.T) {
	r := validReport()
	r.Records[0].Jobs = &types.JobsSummary{Listings: 3, New: 1, Unchanged: 2, HasPrior: true}
	assert.NoError(t, ValidateReport(r))
}

func TestValidateReportJSON_Malformed(t *testing.T) {
	assert.Error(t, ValidateReportJSON([]byte("{")))
}

func TestValidateJSON_Files(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(personSchema), 0o644))

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	assert.NoError(t, ValidateJSON(schemaPath, write("valid.json", `{"name":"a","age":3}`)))

	err := ValidateJSON(schemaPath, write("missing.json", `{"age":3}`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Errors)

	err = ValidateJSON(schemaPath, write("wrong_type.json", `{"name":"a","age":"old"}`))
	require.True(t, errors.As(err, &verr))

	err = ValidateJSON(filepath.Join(dir, "none.json"), schemaPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = ValidateJSON(schemaPath, filepath.Join(dir, "none.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "name")
	assert.Contains(t, errorMsg, "age")
}
