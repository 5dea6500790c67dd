package application

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInflightGuardTryAcquire(t *testing.T) {
	g := NewInflightGuard()

	assert.True(t, g.TryAcquire("alpha.myshopify.com"))
	assert.False(t, g.TryAcquire("alpha.myshopify.com"))
	assert.True(t, g.IsInflight("alpha.myshopify.com"))

	// A different shop is independent.
	assert.True(t, g.TryAcquire("beta.myshopify.com"))

	g.Release("alpha.myshopify.com")
	assert.False(t, g.IsInflight("alpha.myshopify.com"))
	assert.True(t, g.TryAcquire("alpha.myshopify.com"))
}

func TestInflightGuardConcurrentSingleWinner(t *testing.T) {
	g := NewInflightGuard()

	const racers = 50
	var wins int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire("racy.myshopify.com") {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), wins)
}

func TestInflightGuardReleaseUnknownShopIsNoop(t *testing.T) {
	g := NewInflightGuard()
	g.Release("never-acquired.myshopify.com")
	assert.True(t, g.TryAcquire("never-acquired.myshopify.com"))
}
