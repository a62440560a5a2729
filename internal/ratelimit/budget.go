package ratelimit

import (
	"strings"
	"sync"

	"github.com/jonathan/hiring-signal/internal/types"
)

// Budget enforces the run-wide caps on distinct domains and pages per domain.
type Budget struct {
	maxDomains        int
	maxPagesPerDomain int
	pages             map[string]int
	mu                sync.Mutex
}

// NewBudget creates a Budget. A cap of zero or less disables that cap.
func NewBudget(maxDomains, maxPagesPerDomain int) *Budget {
	return &Budget{
		maxDomains:        maxDomains,
		maxPagesPerDomain: maxPagesPerDomain,
		pages:             make(map[string]int),
	}
}

// AdmitDomain registers domain for the run. It returns an empty reason when
// the domain may be crawled, otherwise the skip reason.
func (b *Budget) AdmitDomain(domain string) string {
	domain = normalizeDomain(domain)

	b.mu.Lock()
	defer b.mu.Unlock()

	used, seen := b.pages[domain]
	if !seen {
		if b.maxDomains > 0 && len(b.pages) >= b.maxDomains {
			return types.ReasonDomainCap
		}
		b.pages[domain] = 0
		return ""
	}
	if b.maxPagesPerDomain > 0 && used >= b.maxPagesPerDomain {
		return types.ReasonDomainBudget
	}
	return ""
}

// ReservePage consumes one page from the domain's budget.
func (b *Budget) ReservePage(domain string) bool {
	domain = normalizeDomain(domain)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxPagesPerDomain > 0 && b.pages[domain] >= b.maxPagesPerDomain {
		return false
	}
	b.pages[domain]++
	return true
}

// Used returns the pages consumed for domain.
func (b *Budget) Used(domain string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pages[normalizeDomain(domain)]
}

// Domains returns the number of distinct domains admitted.
func (b *Budget) Domains() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pages)
}

func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimPrefix(domain, "www.")
}
