package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-sync-layer/internal/application"
	"storefront-sync-layer/internal/domain"
	"storefront-sync-layer/internal/ports"
)

type fakeDashboard struct {
	shop    *domain.Shop
	shopErr error

	productQuery  *ports.ProductQuery
	orderQuery    *ports.OrderQuery
	customerQuery *ports.CustomerQuery

	report    *application.AnalyticsReport
	reportErr error
}

func (d *fakeDashboard) GetShop(_ context.Context, shopDomain string) (*domain.Shop, error) {
	if d.shopErr != nil {
		return nil, d.shopErr
	}
	if d.shop != nil {
		return d.shop, nil
	}
	return &domain.Shop{Domain: shopDomain}, nil
}

func (d *fakeDashboard) GetProducts(_ context.Context, q ports.ProductQuery) (*ports.ProductPage, error) {
	d.productQuery = &q
	return &ports.ProductPage{}, nil
}

func (d *fakeDashboard) GetOrders(_ context.Context, q ports.OrderQuery) (*ports.OrderPage, error) {
	d.orderQuery = &q
	return &ports.OrderPage{}, nil
}

func (d *fakeDashboard) GetCustomers(_ context.Context, q ports.CustomerQuery) (*ports.CustomerPage, error) {
	d.customerQuery = &q
	return &ports.CustomerPage{}, nil
}

func (d *fakeDashboard) GetSyncStatus(_ context.Context, _ string) (map[domain.ResourceType]domain.SyncStatus, error) {
	return map[domain.ResourceType]domain.SyncStatus{}, nil
}

func (d *fakeDashboard) GetAnalytics(_ context.Context, _, period string) (*application.AnalyticsReport, error) {
	if d.reportErr != nil {
		return nil, d.reportErr
	}
	if d.report != nil {
		return d.report, nil
	}
	return &application.AnalyticsReport{Period: period}, nil
}

type syncCall struct {
	shopDomain string
	resource   domain.ResourceType
}

type fakeSync struct {
	connects []syncCall
	syncAll  []string
	syncOne  []syncCall

	connectErr error
	syncErr    error
	results    []domain.SyncResult
}

func (s *fakeSync) Connect(_ context.Context, shopDomain, _ string) (*domain.Shop, error) {
	s.connects = append(s.connects, syncCall{shopDomain: shopDomain})
	if s.connectErr != nil {
		return nil, s.connectErr
	}
	return &domain.Shop{Domain: shopDomain}, nil
}

func (s *fakeSync) SyncAll(_ context.Context, shopDomain string) ([]domain.SyncResult, error) {
	s.syncAll = append(s.syncAll, shopDomain)
	return s.results, s.syncErr
}

func (s *fakeSync) SyncResource(_ context.Context, shopDomain string, resource domain.ResourceType) ([]domain.SyncResult, error) {
	s.syncOne = append(s.syncOne, syncCall{shopDomain: shopDomain, resource: resource})
	return s.results, s.syncErr
}

func newTestRouter(d *fakeDashboard, s *fakeSync) http.Handler {
	h := NewHandler(d, s, zerolog.Nop())
	r := chi.NewRouter()
	r.Mount("/api/v1/shops/{shop}", h.Routes())
	return r
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetShop(t *testing.T) {
	router := newTestRouter(&fakeDashboard{}, &fakeSync{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/shops/alpha.myshopify.com", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var shop domain.Shop
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shop))
	assert.Equal(t, "alpha.myshopify.com", shop.Domain)
}

func TestGetShopNotFound(t *testing.T) {
	d := &fakeDashboard{shopErr: fmt.Errorf("%w: nobody", domain.ErrShopNotFound)}
	router := newTestRouter(d, &fakeSync{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/shops/nobody.myshopify.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProductsParsesQuery(t *testing.T) {
	d := &fakeDashboard{}
	router := newTestRouter(d, &fakeSync{})

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/shops/alpha.myshopify.com/products?page=3&limit=20&search=beans&vendor=Roastery&status=active&sort=title&order=asc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	q := d.productQuery
	require.NotNil(t, q)
	assert.Equal(t, "alpha.myshopify.com", q.ShopDomain)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, "beans", q.Search)
	assert.Equal(t, "Roastery", q.Vendor)
	assert.Equal(t, "active", q.Status)
	assert.Equal(t, "title", q.SortBy)
	assert.Equal(t, "asc", q.SortOrder)
}

func TestGetProductsDefaults(t *testing.T) {
	d := &fakeDashboard{}
	router := newTestRouter(d, &fakeSync{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/shops/alpha.myshopify.com/products?page=junk", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, d.productQuery.Page)
	assert.Equal(t, 50, d.productQuery.Limit)
}

func TestGetOrdersParsesDates(t *testing.T) {
	d := &fakeDashboard{}
	router := newTestRouter(d, &fakeSync{})

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/shops/alpha.myshopify.com/orders?date_from=2025-06-01&date_to=2025-06-30T23:59:59Z&financial_status=paid", "")
	require.Equal(t, http.StatusOK, rec.Code)

	q := d.orderQuery
	require.NotNil(t, q)
	assert.Equal(t, "paid", q.FinancialStatus)
	require.NotNil(t, q.DateFrom)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), q.DateFrom.UTC())
	require.NotNil(t, q.DateTo)

	// Filter enums ride along with every order page.
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "filters")
}

func TestGetCustomersParsesRangeFilters(t *testing.T) {
	d := &fakeDashboard{}
	router := newTestRouter(d, &fakeSync{})

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/shops/alpha.myshopify.com/customers?min_orders=2&max_spent=500.50", "")
	require.Equal(t, http.StatusOK, rec.Code)

	q := d.customerQuery
	require.NotNil(t, q)
	require.NotNil(t, q.MinOrders)
	assert.Equal(t, 2, *q.MinOrders)
	assert.Nil(t, q.MaxOrders)
	require.NotNil(t, q.MaxSpent)
	assert.InDelta(t, 500.50, *q.MaxSpent, 0.001)
}

func TestGetAnalyticsDefaultPeriod(t *testing.T) {
	d := &fakeDashboard{}
	router := newTestRouter(d, &fakeSync{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/shops/alpha.myshopify.com/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report application.AnalyticsReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "30d", report.Period)
}

func TestGetAnalyticsRejectsUnknownPeriod(t *testing.T) {
	router := newTestRouter(&fakeDashboard{}, &fakeSync{})

	rec := doRequest(t, router, http.MethodGet, "/api/v1/shops/alpha.myshopify.com/analytics?period=1y", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostSyncDefaultsToAll(t *testing.T) {
	s := &fakeSync{results: []domain.SyncResult{{Resource: domain.ResourceProducts, Synced: 5}}}
	router := newTestRouter(&fakeDashboard{}, s)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/shops/alpha.myshopify.com/sync", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"alpha.myshopify.com"}, s.syncAll)
	assert.Empty(t, s.syncOne)
	assert.Empty(t, s.connects)

	var resp syncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 5, resp.Results[0].Synced)
}

func TestPostSyncSingleResource(t *testing.T) {
	s := &fakeSync{}
	router := newTestRouter(&fakeDashboard{}, s)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/shops/alpha.myshopify.com/sync", `{"resource":"orders"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, s.syncOne, 1)
	assert.Equal(t, domain.ResourceOrders, s.syncOne[0].resource)
	assert.Empty(t, s.syncAll)
}

func TestPostSyncUnknownResource(t *testing.T) {
	s := &fakeSync{}
	router := newTestRouter(&fakeDashboard{}, s)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/shops/alpha.myshopify.com/sync", `{"resource":"inventory"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.syncOne)
	assert.Empty(t, s.syncAll)
}

func TestPostSyncConflict(t *testing.T) {
	s := &fakeSync{syncErr: fmt.Errorf("%w: alpha", domain.ErrSyncInProgress)}
	router := newTestRouter(&fakeDashboard{}, s)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/shops/alpha.myshopify.com/sync", `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPostSyncWithTokenConnectsFirst(t *testing.T) {
	s := &fakeSync{}
	router := newTestRouter(&fakeDashboard{}, s)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/shops/alpha.myshopify.com/sync",
		`{"access_token":"shpat_new"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, s.connects, 1)
	assert.Equal(t, "alpha.myshopify.com", s.connects[0].shopDomain)
	assert.Equal(t, []string{"alpha.myshopify.com"}, s.syncAll)
}

func TestPostSyncFailedResultReportsFailure(t *testing.T) {
	s := &fakeSync{results: []domain.SyncResult{
		{Resource: domain.ResourceProducts, Synced: 10},
		{Resource: domain.ResourceOrders, Error: "upstream 500"},
	}}
	router := newTestRouter(&fakeDashboard{}, s)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/shops/alpha.myshopify.com/sync", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp syncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestPostSyncInvalidBody(t *testing.T) {
	router := newTestRouter(&fakeDashboard{}, &fakeSync{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/shops/alpha.myshopify.com/sync", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
