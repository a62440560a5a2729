// Package schemas embeds the JSON Schemas that govern the tool's output.
package schemas

import _ "embed"

// ReportFile is the file name of the run report schema.
const ReportFile = "report.schema.json"

// Report is the JSON Schema of a run report: company records plus the
// provenance footer.
//
//go:embed report.schema.json
var Report []byte
