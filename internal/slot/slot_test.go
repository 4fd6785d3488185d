package slot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReserve_GlobalCapEnforced(t *testing.T) {
	tbl := NewTable(1)
	assert.True(t, tbl.Reserve("EIC", 5))
	assert.False(t, tbl.Reserve("GDR", 5))
	tbl.Release("EIC")
	assert.True(t, tbl.Reserve("GDR", 5))
}

func TestReserve_PerAgentCapEnforced(t *testing.T) {
	tbl := NewTable(10)
	assert.True(t, tbl.Reserve("EIC", 1))
	assert.False(t, tbl.Reserve("EIC", 1))
	assert.True(t, tbl.Reserve("GDR", 1))
}

func TestReserveRelease_ConcurrentNeverExceedsCap(t *testing.T) {
	const globalMax = 3
	tbl := NewTable(globalMax)
	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tbl.Reserve("AGT", 100) {
				mu.Lock()
				if g := tbl.GlobalInFlight(); g > maxObserved {
					maxObserved = g
				}
				mu.Unlock()
				tbl.Release("AGT")
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, maxObserved, globalMax)
	assert.Equal(t, 0, tbl.GlobalInFlight())
}
