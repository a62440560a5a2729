package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/hiring-signal/internal/logging"
	"github.com/jonathan/hiring-signal/internal/ratelimit"
	"github.com/jonathan/hiring-signal/internal/types"
)

// RobotsMode selects how robots directives are applied.
type RobotsMode string

const (
	// RobotsStrict applies robots directives to every host and fails closed.
	RobotsStrict RobotsMode = "strict"
	// RobotsAllowlist exempts listed hosts whose owners granted permission.
	RobotsAllowlist RobotsMode = "allowlist"
)

// DefaultRobotsTimeout bounds the robots.txt request.
const DefaultRobotsTimeout = 10 * time.Second

// RobotsDecision is the verdict for one URL.
type RobotsDecision struct {
	Allowed bool
	Reason  string
}

// RobotsConfig configures a RobotsCache.
type RobotsConfig struct {
	Mode      RobotsMode
	Allowlist []string
	Timeout   time.Duration
}

type robotsEntry struct {
	group       *robotstxt.Group
	unavailable bool
}

// RobotsCache fetches robots.txt once per host for the lifetime of a run.
// A host whose robots.txt cannot be retrieved is treated as fully disallowed.
type RobotsCache struct {
	client  *Client
	limiter ratelimit.Limiter
	cfg     RobotsConfig
	allow   map[string]bool
	log     *slog.Logger

	mu      sync.Mutex
	entries map[string]*robotsEntry
	group   singleflight.Group
}

// NewRobotsCache creates a cache that fetches through client, paced by limiter.
func NewRobotsCache(cfg RobotsConfig, client *Client, limiter ratelimit.Limiter, log *slog.Logger) *RobotsCache {
	if cfg.Mode == "" {
		cfg.Mode = RobotsStrict
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRobotsTimeout
	}
	allow := make(map[string]bool, len(cfg.Allowlist))
	for _, h := range cfg.Allowlist {
		allow[canonicalHost(h)] = true
	}
	return &RobotsCache{
		client:  client,
		limiter: limiter,
		cfg:     cfg,
		allow:   allow,
		log:     logging.OrDiscard(log),
		entries: make(map[string]*robotsEntry),
	}
}

// Check decides whether pageURL may be fetched.
func (r *RobotsCache) Check(ctx context.Context, pageURL string) RobotsDecision {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return RobotsDecision{Allowed: false, Reason: "invalid_url"}
	}

	if r.cfg.Mode == RobotsAllowlist && r.allow[canonicalHost(u.Hostname())] {
		return RobotsDecision{Allowed: true}
	}

	entry := r.entry(ctx, u)
	if entry.unavailable {
		return RobotsDecision{Allowed: false, Reason: types.ReasonRobotsUnavailable}
	}
	if !entry.group.Test("/") {
		return RobotsDecision{Allowed: false, Reason: types.ReasonRobotsDisallowAll}
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !entry.group.Test(path) {
		return RobotsDecision{Allowed: false, Reason: types.ReasonRobotsDisallowURL}
	}
	return RobotsDecision{Allowed: true}
}

func (r *RobotsCache) entry(ctx context.Context, u *url.URL) *robotsEntry {
	host := strings.ToLower(u.Host)

	r.mu.Lock()
	if e, ok := r.entries[host]; ok {
		r.mu.Unlock()
		return e
	}
	r.mu.Unlock()

	v, _, _ := r.group.Do(host, func() (any, error) {
		e := r.load(ctx, u.Scheme, host)
		r.mu.Lock()
		r.entries[host] = e
		r.mu.Unlock()
		return e, nil
	})
	return v.(*robotsEntry)
}

func (r *RobotsCache) load(ctx context.Context, scheme, host string) *robotsEntry {
	robotsURL := scheme + "://" + host + "/robots.txt"

	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	for hop := 0; ; hop++ {
		hopHost := host
		if u, err := url.Parse(robotsURL); err == nil && u.Host != "" {
			hopHost = strings.ToLower(u.Host)
		}
		if _, err := r.limiter.Wait(ctx, hopHost); err != nil {
			r.log.Warn("robots wait aborted", "host", host, "error", err)
			return &robotsEntry{unavailable: true}
		}

		result, err := r.client.Get(reqCtx, robotsURL)
		r.limiter.RecordRequest(hopHost)
		if err != nil {
			r.log.Warn("robots unavailable, host disallowed", "host", host, "error", err)
			return &robotsEntry{unavailable: true}
		}

		if result.Redirect != "" {
			if hop >= MaxRedirects {
				r.log.Warn("robots redirects exceeded, host disallowed", "host", host, "last", result.Redirect)
				return &robotsEntry{unavailable: true}
			}
			robotsURL = result.Redirect
			continue
		}

		data, err := robotstxt.FromBytes([]byte(result.HTML))
		if err != nil {
			r.log.Warn("robots unparseable, host disallowed", "host", host, "error", err)
			return &robotsEntry{unavailable: true}
		}
		return &robotsEntry{group: data.FindGroup(r.client.UserAgent())}
	}
}

func canonicalHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.TrimPrefix(h, "www.")
}
