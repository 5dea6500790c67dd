package application

import "sync"

// InflightGuard is the per-tenant concurrency guard for full syncs. It is an
// explicit, injectable component rather than process-global state, so tests
// can exercise it without timers or network.
//
// TryAcquire is an atomic test-and-set: of two callers racing on the same
// shop, exactly one wins. Losers are rejected, never queued.
type InflightGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewInflightGuard creates an empty guard.
func NewInflightGuard() *InflightGuard {
	return &InflightGuard{inflight: make(map[string]struct{})}
}

// TryAcquire marks the shop as syncing. It returns false if the shop already
// holds the guard.
func (g *InflightGuard) TryAcquire(shopDomain string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inflight[shopDomain]; ok {
		return false
	}
	g.inflight[shopDomain] = struct{}{}
	return true
}

// Release removes the shop from the in-flight set. Callers release in a
// defer so both success and error paths give the guard back.
func (g *InflightGuard) Release(shopDomain string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, shopDomain)
}

// IsInflight reports whether the shop currently holds the guard.
func (g *InflightGuard) IsInflight(shopDomain string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inflight[shopDomain]
	return ok
}
