package ratelimit

import (
	"sync"
	"testing"

	"github.com/jonathan/hiring-signal/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestBudget_DomainCap(t *testing.T) {
	b := NewBudget(2, 10)

	assert.Empty(t, b.AdmitDomain("a.example"))
	assert.Empty(t, b.AdmitDomain("b.example"))
	assert.Equal(t, types.ReasonDomainCap, b.AdmitDomain("c.example"))
	assert.Empty(t, b.AdmitDomain("www.a.example"), "already admitted domains are not counted twice")
	assert.Equal(t, 2, b.Domains())
}

func TestBudget_PagesPerDomain(t *testing.T) {
	b := NewBudget(0, 3)

	assert.Empty(t, b.AdmitDomain("a.example"))
	assert.True(t, b.ReservePage("a.example"))
	assert.True(t, b.ReservePage("a.example"))
	assert.True(t, b.ReservePage("A.example"))
	assert.False(t, b.ReservePage("a.example"))
	assert.Equal(t, 3, b.Used("a.example"))

	assert.Equal(t, types.ReasonDomainBudget, b.AdmitDomain("a.example"))
}

func TestBudget_ZeroDisablesCaps(t *testing.T) {
	b := NewBudget(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, b.ReservePage("a.example"))
	}
	assert.Empty(t, b.AdmitDomain("a.example"))
}

func TestBudget_ConcurrentReservationsNeverExceedCap(t *testing.T) {
	b := NewBudget(0, 20)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.ReservePage("a.example") {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, granted)
}
