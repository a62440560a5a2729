package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  CompanyRecord
		wantErr bool
	}{
		{
			name:   "valid record",
			record: CompanyRecord{BusinessID: "1234567-8", Name: "Acme Oy", Location: Location{Lat: 60.17, Lon: 24.94}},
		},
		{
			name:    "missing business id",
			record:  CompanyRecord{Name: "Acme Oy"},
			wantErr: true,
		},
		{
			name:    "missing name",
			record:  CompanyRecord{BusinessID: "1234567-8"},
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			record:  CompanyRecord{BusinessID: "1", Name: "x", Location: Location{Lat: 91}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolvedWebsite_Validate(t *testing.T) {
	tests := []struct {
		name    string
		site    ResolvedWebsite
		wantErr bool
	}{
		{name: "user with url", site: ResolvedWebsite{URL: "https://a.example", Source: SourceUser}},
		{name: "unknown without url", site: ResolvedWebsite{Source: SourceUnknown}},
		{name: "absent url with user source", site: ResolvedWebsite{Source: SourceUser}, wantErr: true},
		{name: "url with unknown source", site: ResolvedWebsite{URL: "https://a.example", Source: SourceUnknown}, wantErr: true},
		{name: "invalid source", site: ResolvedWebsite{URL: "https://a.example", Source: "guess"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.site.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolvedWebsite_Err(t *testing.T) {
	assert.NoError(t, ResolvedWebsite{URL: "https://a.example/", Source: SourceUser}.Err())
	assert.True(t, errors.Is(ResolvedWebsite{Source: SourceUnknown}.Err(), ErrResolutionAmbiguous))
}

func TestClassificationResult_Check(t *testing.T) {
	two := []EvidenceItem{
		{Snippet: "we're hiring", URL: "https://a.example/"},
		{Snippet: "apply now", URL: "https://a.example/careers"},
	}

	t.Run("committed with two items", func(t *testing.T) {
		r := ClassificationResult{Signal: SignalYes, Confidence: 0.7, Evidence: two}
		assert.NoError(t, r.Check())
	})

	t.Run("committed with one item", func(t *testing.T) {
		r := ClassificationResult{Signal: SignalNo, Confidence: 0.7, Evidence: two[:1]}
		assert.Error(t, r.Check())
	})

	t.Run("committed with empty url", func(t *testing.T) {
		r := ClassificationResult{Signal: SignalYes, Confidence: 0.7, Evidence: []EvidenceItem{two[0], {Snippet: "x"}}}
		assert.Error(t, r.Check())
	})

	t.Run("unclear without evidence", func(t *testing.T) {
		r := ClassificationResult{Signal: SignalUnclear}
		assert.NoError(t, r.Check())
	})

	t.Run("confidence out of range", func(t *testing.T) {
		r := ClassificationResult{Signal: SignalUnclear, Confidence: 1.5}
		assert.Error(t, r.Check())
	})
}

func TestCrawlResult_Helpers(t *testing.T) {
	crawl := CrawlResult{
		Pages: []FetchedPage{
			{URL: "https://a.example/", Kind: PageHomepage},
			{URL: "https://a.example/careers", Kind: PageCareers},
		},
	}

	assert.Equal(t, []string{"https://a.example/", "https://a.example/careers"}, crawl.CheckedURLs())
	careers := crawl.Page(PageCareers)
	require.NotNil(t, careers)
	assert.Equal(t, "https://a.example/careers", careers.URL)

	empty := CrawlResult{}
	assert.Nil(t, empty.Page(PageHomepage))
	assert.Empty(t, empty.CheckedURLs())
}

func TestErrorTaxonomy_Distinct(t *testing.T) {
	all := []error{
		ErrResolutionAmbiguous, ErrRobotsUnavailable, ErrFetchFailure,
		ErrEvidenceInsufficient, ErrInferenceUnavailable, ErrBudgetExhausted,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}
