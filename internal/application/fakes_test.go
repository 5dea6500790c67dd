package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront-sync-layer/internal/domain"
	"storefront-sync-layer/internal/ports"
)

// In-memory fakes over the ports, shared by the orchestrator and scheduler
// tests. They record calls instead of persisting anything.

type fakeShopRepo struct {
	mu    sync.Mutex
	shops map[string]*domain.Shop
	saved []*domain.Shop
}

func newFakeShopRepo(shops ...*domain.Shop) *fakeShopRepo {
	r := &fakeShopRepo{shops: make(map[string]*domain.Shop)}
	for _, s := range shops {
		r.shops[s.Domain] = s
	}
	return r
}

func (r *fakeShopRepo) Save(_ context.Context, shop *domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *shop
	r.shops[shop.Domain] = &cp
	r.saved = append(r.saved, &cp)
	return nil
}

func (r *fakeShopRepo) GetByDomain(_ context.Context, shopDomain string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shops[shopDomain], nil
}

func (r *fakeShopRepo) List(_ context.Context) ([]*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Shop, 0, len(r.shops))
	for _, s := range r.shops {
		out = append(out, s)
	}
	return out, nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	upserted []domain.Product
	failIDs  map[int64]bool
}

func (r *fakeProductRepo) Upsert(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failIDs[p.ShopifyID] {
		return fmt.Errorf("write failed for product %d", p.ShopifyID)
	}
	r.upserted = append(r.upserted, *p)
	return nil
}

func (r *fakeProductRepo) List(_ context.Context, _ ports.ProductQuery) (*ports.ProductPage, error) {
	return &ports.ProductPage{}, nil
}

func (r *fakeProductRepo) CountForShop(_ context.Context, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.upserted)), nil
}

type orderKey struct {
	shopDomain string
	shopifyID  int64
}

type fakeOrderRepo struct {
	mu           sync.Mutex
	upserted     []domain.Order
	byKey        map[orderKey]domain.Order
	revenueCalls int
}

func (r *fakeOrderRepo) Upsert(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, *o)
	if r.byKey == nil {
		r.byKey = make(map[orderKey]domain.Order)
	}
	r.byKey[orderKey{shopDomain: o.ShopDomain, shopifyID: o.ShopifyID}] = *o
	return nil
}

func (r *fakeOrderRepo) List(_ context.Context, _ ports.OrderQuery) (*ports.OrderPage, error) {
	return &ports.OrderPage{}, nil
}

func (r *fakeOrderRepo) RevenueSince(_ context.Context, _ string, _ time.Time) (ports.OrderAggregates, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revenueCalls++
	return ports.OrderAggregates{TotalRevenue: 1000, OrderCount: 10, AverageOrderValue: 100}, nil
}

func (r *fakeOrderRepo) TopProducts(_ context.Context, _ string, _ time.Time, _ int) ([]ports.TopProduct, error) {
	return nil, nil
}

func (r *fakeOrderRepo) Recent(_ context.Context, _ string, _ int) ([]domain.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) MonthlyRevenue(_ context.Context, _ string, _ int) ([]ports.MonthlyRevenue, error) {
	return nil, nil
}

type fakeCustomerRepo struct {
	mu       sync.Mutex
	upserted []domain.Customer
}

func (r *fakeCustomerRepo) Upsert(_ context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, *c)
	return nil
}

func (r *fakeCustomerRepo) List(_ context.Context, _ ports.CustomerQuery) (*ports.CustomerPage, error) {
	return &ports.CustomerPage{}, nil
}

func (r *fakeCustomerRepo) CountForShop(_ context.Context, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.upserted)), nil
}

type statusCall struct {
	shopDomain string
	resource   domain.ResourceType
	total      int
	nextSync   time.Time
	message    string
}

type fakeStatusRepo struct {
	mu        sync.Mutex
	started   []statusCall
	completed []statusCall
	errored   []statusCall
	cursors   []int64
}

func (r *fakeStatusRepo) MarkStarted(_ context.Context, shopDomain string, resource domain.ResourceType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, statusCall{shopDomain: shopDomain, resource: resource})
	return nil
}

func (r *fakeStatusRepo) MarkCompleted(_ context.Context, shopDomain string, resource domain.ResourceType, totalRecords int, nextSync time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, statusCall{
		shopDomain: shopDomain,
		resource:   resource,
		total:      totalRecords,
		nextSync:   nextSync,
	})
	return nil
}

func (r *fakeStatusRepo) MarkErrored(_ context.Context, shopDomain string, resource domain.ResourceType, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errored = append(r.errored, statusCall{shopDomain: shopDomain, resource: resource, message: message})
	return nil
}

func (r *fakeStatusRepo) UpdateCursor(_ context.Context, _ string, _ domain.ResourceType, cursor int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursors = append(r.cursors, cursor)
	return nil
}

func (r *fakeStatusRepo) GetStatus(_ context.Context, _ string) (map[domain.ResourceType]domain.SyncStatus, error) {
	return map[domain.ResourceType]domain.SyncStatus{}, nil
}

func (r *fakeStatusRepo) completedFor(resource domain.ResourceType) []statusCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []statusCall
	for _, c := range r.completed {
		if c.resource == resource {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeStatusRepo) erroredFor(resource domain.ResourceType) []statusCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []statusCall
	for _, c := range r.errored {
		if c.resource == resource {
			out = append(out, c)
		}
	}
	return out
}

// fakeFetcher serves scripted pages. Page N of a script is returned for the
// N-th fetch of that resource; the last scripted page is terminal. Cursors
// passed by the orchestrator are recorded for assertions.
type fakeFetcher struct {
	mu sync.Mutex

	productPages  [][]domain.Product
	orderPages    [][]domain.Order
	customerPages [][]domain.Customer

	productErr  error
	orderErr    error
	customerErr error

	productCursors  []int64
	orderCursors    []int64
	customerCursors []int64

	shopFetches int

	recentOrders []domain.Order
	recentCalls  int

	// When set, the first product fetch signals productStarted and then
	// blocks until blockProducts is closed.
	blockProducts  chan struct{}
	productStarted chan struct{}
}

func (f *fakeFetcher) FetchShop(_ context.Context, shopDomain, _ string) (*domain.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shopFetches++
	return &domain.Shop{Domain: shopDomain, Name: "Fake Shop"}, nil
}

func (f *fakeFetcher) FetchProductsPage(_ context.Context, _, _ string, sinceID int64) ([]domain.Product, int64, bool, error) {
	f.mu.Lock()
	f.productCursors = append(f.productCursors, sinceID)
	idx := len(f.productCursors) - 1
	block, started := f.blockProducts, f.productStarted
	f.mu.Unlock()

	if block != nil {
		if started != nil && idx == 0 {
			started <- struct{}{}
		}
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.productErr != nil {
		return nil, sinceID, false, f.productErr
	}
	if idx >= len(f.productPages) {
		return nil, sinceID, true, nil
	}
	page := f.productPages[idx]
	next := sinceID
	for _, p := range page {
		if p.ShopifyID > next {
			next = p.ShopifyID
		}
	}
	return page, next, idx == len(f.productPages)-1, nil
}

func (f *fakeFetcher) FetchOrdersPage(_ context.Context, _, _ string, sinceID int64) ([]domain.Order, int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCursors = append(f.orderCursors, sinceID)
	if f.orderErr != nil {
		return nil, sinceID, false, f.orderErr
	}
	idx := len(f.orderCursors) - 1
	if idx >= len(f.orderPages) {
		return nil, sinceID, true, nil
	}
	page := f.orderPages[idx]
	next := sinceID
	for _, o := range page {
		if o.ShopifyID > next {
			next = o.ShopifyID
		}
	}
	return page, next, idx == len(f.orderPages)-1, nil
}

func (f *fakeFetcher) FetchCustomersPage(_ context.Context, _, _ string, sinceID int64) ([]domain.Customer, int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerCursors = append(f.customerCursors, sinceID)
	if f.customerErr != nil {
		return nil, sinceID, false, f.customerErr
	}
	idx := len(f.customerCursors) - 1
	if idx >= len(f.customerPages) {
		return nil, sinceID, true, nil
	}
	page := f.customerPages[idx]
	next := sinceID
	for _, c := range page {
		if c.ShopifyID > next {
			next = c.ShopifyID
		}
	}
	return page, next, idx == len(f.customerPages)-1, nil
}

func (f *fakeFetcher) FetchOrdersCreatedSince(_ context.Context, _, _ string, _ time.Time) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recentCalls++
	return f.recentOrders, nil
}

// fakeEncryption prefixes instead of encrypting, so tests can assert the
// stored token is not the plaintext.
type fakeEncryption struct{}

func (fakeEncryption) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (fakeEncryption) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", fmt.Errorf("not an encrypted token")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

func makeProducts(shopDomain string, fromID, count int) []domain.Product {
	out := make([]domain.Product, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, domain.Product{
			ShopDomain: shopDomain,
			ShopifyID:  int64(fromID + i),
			Title:      fmt.Sprintf("Product %d", fromID+i),
		})
	}
	return out
}

func makeOrders(shopDomain string, fromID, count int) []domain.Order {
	out := make([]domain.Order, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, domain.Order{
			ShopDomain: shopDomain,
			ShopifyID:  int64(fromID + i),
			Name:       fmt.Sprintf("#%d", fromID+i),
		})
	}
	return out
}

func makeCustomers(shopDomain string, fromID, count int) []domain.Customer {
	out := make([]domain.Customer, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, domain.Customer{
			ShopDomain: shopDomain,
			ShopifyID:  int64(fromID + i),
			Email:      fmt.Sprintf("c%d@example.com", fromID+i),
		})
	}
	return out
}
