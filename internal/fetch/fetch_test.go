package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/hiring-signal/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	client := NewClient(&Options{UserAgent: "test-agent"})
	result, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestGet_InvalidURL(t *testing.T) {
	_, err := NewClient(nil).Get(context.Background(), "not-a-valid-url")
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "invalid_url", fetchErr.Reason())
	assert.True(t, errors.Is(err, types.ErrFetchFailure))
}

func TestGet_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := NewClient(nil).Get(context.Background(), server.URL)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "http_404", fetchErr.Reason())
}

func TestGet_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Options{Timeout: 20 * time.Millisecond})
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "timeout", fetchErr.Reason())
}

func TestGet_DoesNotFollowRedirects(t *testing.T) {
	var targetHits int
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		targetHits++
		_, _ = w.Write([]byte("<p>elsewhere</p>"))
	}))
	defer target.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/private", http.StatusFound)
	}))
	defer server.Close()

	result, err := NewClient(nil).Get(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, result.StatusCode)
	assert.Equal(t, target.URL+"/private", result.Redirect)
	assert.Equal(t, 0, targetHits)
}

func TestGet_RelativeRedirectIsResolved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "/home")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	result, err := NewClient(nil).Get(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/home", result.Redirect)
}

func TestGet_ResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 2048)))
	}))
	defer server.Close()

	client := NewClient(&Options{MaxBytes: 1024})
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "response_too_large", fetchErr.Reason())
}

func TestGet_DecodesLatin1(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Työpaikat" with ö encoded as a single latin-1 byte
		_, _ = w.Write([]byte("<html><body>Ty\xf6paikat</body></html>"))
	}))
	defer server.Close()

	result, err := NewClient(nil).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "Työpaikat")
}

func TestIsTextContent(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html; charset=utf-8", true},
		{"text/plain", true},
		{"application/xhtml+xml", true},
		{"", true},
		{"application/pdf", false},
		{"image/png", false},
		{"not a media type;;", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTextContent(tt.contentType))
		})
	}
}

func TestExtractText_SeparatesElements(t *testing.T) {
	html := `
	<html>
		<head><title>Acme</title><style>body { color: red }</style></head>
		<body>
			<nav><a href="/careers">Careers</a></nav>
			<h1>We're hiring</h1><p>Open   positions
			in Helsinki</p>
			<script>var hiring = "no openings";</script>
			<noscript>enable javascript</noscript>
		</body>
	</html>`

	text, err := ExtractText(html, 0)
	require.NoError(t, err)
	assert.Equal(t, "Careers We're hiring Open positions in Helsinki", text)
	assert.NotContains(t, text, "no openings")
	assert.NotContains(t, text, "color")
}

func TestExtractText_TruncatesOnRuneBoundary(t *testing.T) {
	text, err := ExtractText("<p>äääää bbbbb</p>", 4)
	require.NoError(t, err)
	assert.Equal(t, "ääää", text)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("Loading..."))
	assert.False(t, ShouldUseBrowser(strings.Repeat("content ", 40)))
}
