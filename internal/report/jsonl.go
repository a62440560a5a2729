// Package report writes run results as JSONL, CSV and Markdown dossiers.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/hiring-signal/internal/types"
)

// Output formats
const (
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

// WriteJSONL writes one company record per line followed by the provenance footer.
func WriteJSONL(w io.Writer, r *types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range r.Records {
		if err := enc.Encode(&r.Records[i]); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.Records[i].BusinessID, err)
		}
	}
	if err := enc.Encode(&r.Provenance); err != nil {
		return fmt.Errorf("failed to write provenance: %w", err)
	}
	return nil
}

// ReadJSONL parses output written by WriteJSONL back into a Report.
func ReadJSONL(rd io.Reader) (*types.Report, error) {
	report := &types.Report{Records: []types.CompanyReport{}}
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), 4<<20)

	line := 0
	footer := false
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var head struct {
			RecordType string `json:"record_type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", line, err)
		}
		switch head.RecordType {
		case types.RecordTypeCompany:
			var rec types.CompanyReport
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, fmt.Errorf("line %d: invalid company record: %w", line, err)
			}
			report.Records = append(report.Records, rec)
		case types.RecordTypeProvenance:
			if err := json.Unmarshal(raw, &report.Provenance); err != nil {
				return nil, fmt.Errorf("line %d: invalid provenance: %w", line, err)
			}
			footer = true
		default:
			return nil, fmt.Errorf("line %d: unknown record_type %q", line, head.RecordType)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL: %w", err)
	}
	if !footer {
		return nil, fmt.Errorf("missing provenance footer")
	}
	return report, nil
}

// WriteFile writes r to path in the given format. The file is written under
// a temporary name and renamed, so a failed write leaves no partial output.
func WriteFile(path, format string, r *types.Report) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := bufio.NewWriter(tmp)
	if err := Write(w, format, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// Write encodes r in the given format.
func Write(w io.Writer, format string, r *types.Report) error {
	switch format {
	case FormatJSONL, "":
		return WriteJSONL(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
