// Package ratelimit holds the only shared mutable state of a run: per-host
// request pacing and per-domain page budgets.
package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultMinDelay is the minimum gap between two requests to the same host.
const DefaultMinDelay = time.Second

// Limiter paces requests per host.
type Limiter interface {
	// Reserve claims the next request slot for host if it is due now.
	Reserve(host string) bool
	// RecordRequest marks a completed request so the next slot starts after it.
	RecordRequest(host string)
	// Wait blocks until a slot for host is reserved and returns the reserved time.
	Wait(ctx context.Context, host string) (time.Time, error)
}

// HostLimiter maps each host to the earliest time its next request may start.
type HostLimiter struct {
	minDelay time.Duration
	clock    Clock
	next     map[string]time.Time
	mu       sync.Mutex
}

var _ Limiter = (*HostLimiter)(nil)

// NewHostLimiter creates a limiter enforcing minDelay between requests to the same host.
func NewHostLimiter(minDelay time.Duration, clock Clock) *HostLimiter {
	if clock == nil {
		clock = RealClock()
	}
	if minDelay < 0 {
		minDelay = 0
	}
	return &HostLimiter{
		minDelay: minDelay,
		clock:    clock,
		next:     make(map[string]time.Time),
	}
}

// Reserve claims the slot for host if the earliest allowed time has passed.
func (l *HostLimiter) Reserve(host string) bool {
	_, ok := l.tryReserve(normalizeHost(host))
	return ok
}

// RecordRequest pushes the next slot for host to at least now+minDelay.
func (l *HostLimiter) RecordRequest(host string) {
	host = normalizeHost(host)

	l.mu.Lock()
	defer l.mu.Unlock()

	candidate := l.clock.Now().Add(l.minDelay)
	if candidate.After(l.next[host]) {
		l.next[host] = candidate
	}
}

// Wait blocks until a slot for host is reserved or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) (time.Time, error) {
	host = normalizeHost(host)
	for {
		if at, ok := l.tryReserve(host); ok {
			return at, nil
		}

		delay := l.delay(host)
		select {
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		case <-l.clock.After(delay):
		}
	}
}

// tryReserve performs the check-and-claim under one lock.
func (l *HostLimiter) tryReserve(host string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if next, ok := l.next[host]; ok && now.Before(next) {
		return time.Time{}, false
	}
	l.next[host] = now.Add(l.minDelay)
	return now, true
}

func (l *HostLimiter) delay(host string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := l.next[host].Sub(l.clock.Now())
	if d <= 0 {
		// another waiter may be about to claim it; yield briefly
		return time.Millisecond
	}
	return d
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}
