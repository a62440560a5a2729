package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSiteDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.A.example/careers", "a.example"},
		{"http://a.example:8080/", "a.example"},
		{"https://jobs.a.example", "jobs.a.example"},
		{"not a url", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SiteDomain(tt.in))
		})
	}
}

func TestSameSite(t *testing.T) {
	assert.True(t, SameSite("a.example", "a.example"))
	assert.True(t, SameSite("www.a.example", "a.example"))
	assert.True(t, SameSite("jobs.a.example", "www.a.example"))
	assert.False(t, SameSite("evila.example", "a.example"))
	assert.False(t, SameSite("a.example.evil", "a.example"))
	assert.False(t, SameSite("", "a.example"))
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"a.example", "https://a.example/", true},
		{"  https://a.example/about#team ", "https://a.example/about", true},
		{"http://a.example", "http://a.example/", true},
		{"//a.example/x", "https://a.example/x", true},
		{"ftp://a.example", "", false},
		{"", "", false},
		{"https://", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeURL(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
