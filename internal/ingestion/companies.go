// Package ingestion loads company records produced by upstream tooling.
package ingestion

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/hiring-signal/internal/logging"
	"github.com/jonathan/hiring-signal/internal/types"
)

var (
	// ErrUnknownFormat is returned when the input format cannot be determined
	ErrUnknownFormat = fmt.Errorf("unknown input format")
	// ErrMissingColumn is returned when a CSV header lacks a required column
	ErrMissingColumn = fmt.Errorf("missing required column")
)

// Format is the encoding of a company input file.
type Format string

const (
	// FormatJSONL is one JSON CompanyRecord per line
	FormatJSONL Format = "jsonl"
	// FormatCSV is a header row followed by one company per row
	FormatCSV Format = "csv"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// Header aliases accepted in CSV input, keyed by canonical column.
var columnAliases = map[string][]string{
	"business_id":    {"business_id", "businessid", "id", "y_tunnus", "ytunnus"},
	"name":           {"name", "company", "company_name"},
	"website":        {"website", "user_website", "url", "homepage"},
	"places_website": {"places_website", "place_website", "maps_website"},
	"lat":            {"lat", "latitude"},
	"lon":            {"lon", "lng", "longitude"},
	"address":        {"address", "formatted_address"},
}

// RowError describes an input row that was skipped.
type RowError struct {
	Line    int
	Message string
	Cause   error
}

func (e *RowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Message, e.Cause)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Cause
}

// FormatFromPath infers the input format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// LoadCompanies reads all valid company records from path. Invalid rows are
// logged and skipped; the returned slice keeps input order.
func LoadCompanies(path string, log *slog.Logger) ([]types.CompanyRecord, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open company input: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, rowErrs, err := ReadCompanies(f, format)
	if err != nil {
		return nil, err
	}
	log = logging.OrDiscard(log)
	for _, re := range rowErrs {
		log.Warn("skipping company row", "path", path, "line", re.Line, "error", re.Error())
	}
	return records, nil
}

// ReadCompanies decodes company records from r. Rows that fail to decode or
// validate are returned as RowErrors; err is reserved for unreadable input.
func ReadCompanies(r io.Reader, format Format) ([]types.CompanyRecord, []*RowError, error) {
	switch format {
	case FormatJSONL:
		return readJSONL(r)
	case FormatCSV:
		return readCSV(r)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func readJSONL(r io.Reader) ([]types.CompanyRecord, []*RowError, error) {
	var (
		records []types.CompanyRecord
		rowErrs []*RowError
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec types.CompanyRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Message: "invalid JSON", Cause: err})
			continue
		}
		if rowErr := check(&rec, line); rowErr != nil {
			rowErrs = append(rowErrs, rowErr)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read JSONL input: %w", err)
	}
	return records, rowErrs, nil
}

func readCSV(r io.Reader) ([]types.CompanyRecord, []*RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := mapColumns(header)
	for _, required := range []string{"business_id", "name"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var (
		records []types.CompanyRecord
		rowErrs []*RowError
	)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rowErrs = append(rowErrs, &RowError{Line: parseErr.Line, Message: "malformed CSV row", Cause: err})
				continue
			}
			return nil, nil, fmt.Errorf("failed to read CSV input: %w", err)
		}

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := types.CompanyRecord{
			BusinessID:    get("business_id"),
			Name:          get("name"),
			Website:       get("website"),
			PlacesWebsite: get("places_website"),
			Location:      types.Location{Address: get("address")},
		}
		if rec.Location.Lat, err = parseCoord(get("lat")); err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Message: "invalid lat", Cause: err})
			continue
		}
		if rec.Location.Lon, err = parseCoord(get("lon")); err != nil {
			rowErrs = append(rowErrs, &RowError{Line: line, Message: "invalid lon", Cause: err})
			continue
		}
		if rowErr := check(&rec, line); rowErr != nil {
			rowErrs = append(rowErrs, rowErr)
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

func mapColumns(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := byName[h]; !seen {
			byName[h] = i
		}
	}
	cols := make(map[string]int, len(columnAliases))
	for canonical, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := byName[a]; ok {
				cols[canonical] = i
				break
			}
		}
	}
	return cols
}

func parseCoord(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

func check(rec *types.CompanyRecord, line int) *RowError {
	rec.BusinessID = strings.TrimSpace(rec.BusinessID)
	rec.Name = strings.TrimSpace(rec.Name)
	if err := rec.Validate(); err != nil {
		return &RowError{Line: line, Message: "invalid company record", Cause: err}
	}
	return nil
}
