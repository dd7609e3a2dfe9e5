package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OybekDeveloper/leora/internal/date"
)

func TestClock_StartsOnGivenDay(t *testing.T) {
	clock := NewClock(date.MustParse("2025-01-31"))
	assert.Equal(t, date.MustParse("2025-01-31"), clock.Today())
}

func TestClock_Advance(t *testing.T) {
	clock := NewClock(date.MustParse("2025-01-31"))

	// Crosses the month boundary
	assert.Equal(t, date.MustParse("2025-02-01"), clock.Advance(1))
	assert.Equal(t, date.MustParse("2025-03-01"), clock.Advance(28))
	assert.Equal(t, date.MustParse("2025-03-01"), clock.Today())
}

func TestClock_SetBackwards(t *testing.T) {
	clock := NewClock(date.MustParse("2025-03-10"))
	clock.Set(date.MustParse("2025-03-01"))
	assert.Equal(t, date.MustParse("2025-03-01"), clock.Today())
}

func TestClock_NowIncreasesOnSameDay(t *testing.T) {
	clock := NewClock(date.MustParse("2025-03-10"))

	first := clock.Now()
	second := clock.Now()
	assert.True(t, second.After(first))
	assert.Equal(t, clock.Today(), date.FromTime(first))
	assert.Equal(t, clock.Today(), date.FromTime(second))
}

func TestClock_ThreadSafe(t *testing.T) {
	clock := NewClock(date.MustParse("2025-01-01"))
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for range numGoroutines {
		go func() {
			defer wg.Done()
			clock.Advance(1)
			clock.Now()
		}()
	}
	wg.Wait()

	// All advances should be accounted for
	assert.Equal(t, date.MustParse("2025-02-20"), clock.Today())
}
