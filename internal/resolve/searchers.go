package resolve

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/hiring-signal/internal/types"
)

// DomainMapSearcher answers lookups from a reviewed business_id to domain map.
type DomainMapSearcher struct {
	domains map[string]string
}

// NewDomainMapSearcher wraps an in-memory map.
func NewDomainMapSearcher(domains map[string]string) *DomainMapSearcher {
	m := make(map[string]string, len(domains))
	for id, d := range domains {
		m[strings.TrimSpace(id)] = strings.TrimSpace(d)
	}
	return &DomainMapSearcher{domains: m}
}

// LoadDomainMap reads a CSV file with business_id and domain columns.
func LoadDomainMap(path string) (*DomainMapSearcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open domain map: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadDomainMap(f)
}

// ReadDomainMap parses domain map CSV from r. Rows with an empty id or
// domain are skipped.
func ReadDomainMap(r io.Reader) (*DomainMapSearcher, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read domain map header: %w", err)
	}
	idCol, domainCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "business_id":
			idCol = i
		case "domain":
			domainCol = i
		}
	}
	if idCol < 0 || domainCol < 0 {
		return nil, fmt.Errorf("domain map must have business_id and domain columns, got %v", header)
	}

	domains := make(map[string]string)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read domain map: %w", err)
		}
		if idCol >= len(row) || domainCol >= len(row) {
			continue
		}
		id, domain := strings.TrimSpace(row[idCol]), strings.TrimSpace(row[domainCol])
		if id == "" || domain == "" {
			continue
		}
		domains[id] = domain
	}
	return NewDomainMapSearcher(domains), nil
}

// Lookup implements Searcher.
func (s *DomainMapSearcher) Lookup(_ context.Context, company types.CompanyRecord) (string, error) {
	return s.domains[company.BusinessID], nil
}

// Name implements Searcher.
func (s *DomainMapSearcher) Name() string {
	return "domain_map"
}

// Len returns the number of mapped companies.
func (s *DomainMapSearcher) Len() int {
	return len(s.domains)
}

// ChainSearcher tries each searcher in order and returns the first answer.
type ChainSearcher []Searcher

// Lookup implements Searcher. Errors from earlier searchers are returned
// only if no later searcher answers.
func (c ChainSearcher) Lookup(ctx context.Context, company types.CompanyRecord) (string, error) {
	var errs []error
	for _, s := range c {
		found, err := s.Lookup(ctx, company)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if found != "" {
			return found, nil
		}
	}
	return "", errors.Join(errs...)
}

// Name implements Searcher.
func (c ChainSearcher) Name() string {
	names := make([]string, 0, len(c))
	for _, s := range c {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}
