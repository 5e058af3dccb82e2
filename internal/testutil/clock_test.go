package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 9, 13, 19, 0, 0, 0, time.UTC)

func TestClock_AdvancesByStep(t *testing.T) {
	c := NewClock(epoch, time.Second)

	assert.Equal(t, epoch, c.Now())
	assert.Equal(t, epoch.Add(time.Second), c.Now())
	assert.Equal(t, epoch.Add(2*time.Second), c.Peek())
}

func TestClock_Set(t *testing.T) {
	c := NewClock(epoch, time.Minute)
	later := epoch.Add(3 * time.Hour)

	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestClock_ThreadSafe(t *testing.T) {
	c := NewClock(epoch, time.Nanosecond)
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, epoch.Add(n*time.Nanosecond), c.Peek())
}
