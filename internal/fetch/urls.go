package fetch

import (
	"net/url"
	"strings"
)

// SiteDomain returns the lowercase host of rawURL without port or "www." prefix.
// It returns an empty string for URLs without a host.
func SiteDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return canonicalHost(u.Hostname())
}

// SameSite reports whether host equals domain or is a subdomain of it.
func SameSite(host, domain string) bool {
	host = canonicalHost(host)
	domain = canonicalHost(domain)
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// NormalizeURL trims rawURL, adds an https scheme when none is present and
// returns it if it parses to an http(s) URL with a host.
func NormalizeURL(rawURL string) (string, bool) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + strings.TrimPrefix(s, "//")
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u.String(), true
}
