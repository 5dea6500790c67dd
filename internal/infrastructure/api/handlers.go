package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"storefront-sync-layer/internal/application"
	"storefront-sync-layer/internal/domain"
	"storefront-sync-layer/internal/ports"
)

// DashboardReader is the read surface the handlers need from the facade.
type DashboardReader interface {
	GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error)
	GetProducts(ctx context.Context, q ports.ProductQuery) (*ports.ProductPage, error)
	GetOrders(ctx context.Context, q ports.OrderQuery) (*ports.OrderPage, error)
	GetCustomers(ctx context.Context, q ports.CustomerQuery) (*ports.CustomerPage, error)
	GetSyncStatus(ctx context.Context, shopDomain string) (map[domain.ResourceType]domain.SyncStatus, error)
	GetAnalytics(ctx context.Context, shopDomain, period string) (*application.AnalyticsReport, error)
}

// SyncTrigger is the on-demand sync surface the handlers need.
type SyncTrigger interface {
	Connect(ctx context.Context, shopDomain, accessToken string) (*domain.Shop, error)
	SyncAll(ctx context.Context, shopDomain string) ([]domain.SyncResult, error)
	SyncResource(ctx context.Context, shopDomain string, resource domain.ResourceType) ([]domain.SyncResult, error)
}

// Handler serves the cached-read facade and the on-demand sync trigger.
type Handler struct {
	dashboard DashboardReader
	sync      SyncTrigger
	logger    zerolog.Logger
}

// NewHandler creates the facade handler.
func NewHandler(dashboard DashboardReader, sync SyncTrigger, logger zerolog.Logger) *Handler {
	return &Handler{dashboard: dashboard, sync: sync, logger: logger}
}

// Routes returns the per-shop subrouter, mounted at /api/v1/shops/{shop}.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleGetShop)
	r.Get("/products", h.handleGetProducts)
	r.Get("/orders", h.handleGetOrders)
	r.Get("/customers", h.handleGetCustomers)
	r.Get("/sync-status", h.handleGetSyncStatus)
	r.Get("/analytics", h.handleGetAnalytics)
	r.Post("/sync", h.handlePostSync)
	return r
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrShopNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSyncInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnknownResource),
		errors.Is(err, domain.ErrMissingAccessToken):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Request failed")
	}
	h.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryIntPtr(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func queryFloatPtr(r *http.Request, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryTimePtr(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

func (h *Handler) handleGetShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.dashboard.GetShop(r.Context(), chi.URLParam(r, "shop"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, shop)
}

func (h *Handler) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	q := ports.ProductQuery{
		ShopDomain:  chi.URLParam(r, "shop"),
		Page:        queryInt(r, "page", 1),
		Limit:       queryInt(r, "limit", 50),
		Search:      r.URL.Query().Get("search"),
		Vendor:      r.URL.Query().Get("vendor"),
		ProductType: r.URL.Query().Get("product_type"),
		Status:      r.URL.Query().Get("status"),
		SortBy:      r.URL.Query().Get("sort"),
		SortOrder:   r.URL.Query().Get("order"),
	}
	page, err := h.dashboard.GetProducts(r.Context(), q)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, page)
}

// orderStatusValues are the static enum lists returned with every order
// page so the UI can render its filters without a separate round trip.
var orderStatusValues = map[string][]string{
	"financial_statuses":   {"pending", "authorized", "paid", "partially_paid", "partially_refunded", "refunded", "voided"},
	"fulfillment_statuses": {"fulfilled", "partial", "unfulfilled", "restocked"},
}

func (h *Handler) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	q := ports.OrderQuery{
		ShopDomain:        chi.URLParam(r, "shop"),
		Page:              queryInt(r, "page", 1),
		Limit:             queryInt(r, "limit", 50),
		Search:            r.URL.Query().Get("search"),
		FinancialStatus:   r.URL.Query().Get("financial_status"),
		FulfillmentStatus: r.URL.Query().Get("fulfillment_status"),
		DateFrom:          queryTimePtr(r, "date_from"),
		DateTo:            queryTimePtr(r, "date_to"),
		SortBy:            r.URL.Query().Get("sort"),
		SortOrder:         r.URL.Query().Get("order"),
	}
	page, err := h.dashboard.GetOrders(r.Context(), q)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders":      page.Orders,
		"pagination":  page.Pagination,
		"aggregates":  page.Aggregates,
		"last_synced": page.LastSynced,
		"filters":     orderStatusValues,
	})
}

func (h *Handler) handleGetCustomers(w http.ResponseWriter, r *http.Request) {
	q := ports.CustomerQuery{
		ShopDomain: chi.URLParam(r, "shop"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 50),
		Search:     r.URL.Query().Get("search"),
		State:      r.URL.Query().Get("state"),
		MinOrders:  queryIntPtr(r, "min_orders"),
		MaxOrders:  queryIntPtr(r, "max_orders"),
		MinSpent:   queryFloatPtr(r, "min_spent"),
		MaxSpent:   queryFloatPtr(r, "max_spent"),
		SortBy:     r.URL.Query().Get("sort"),
		SortOrder:  r.URL.Query().Get("order"),
	}
	page, err := h.dashboard.GetCustomers(r.Context(), q)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGetSyncStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.dashboard.GetSyncStatus(r.Context(), chi.URLParam(r, "shop"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, statuses)
}

func (h *Handler) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "30d"
	}
	if _, ok := application.AnalyticsPeriods[period]; !ok {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "period must be one of 7d, 30d, 90d",
		})
		return
	}
	report, err := h.dashboard.GetAnalytics(r.Context(), chi.URLParam(r, "shop"), period)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

type syncRequest struct {
	Resource    string `json:"resource"`
	AccessToken string `json:"access_token,omitempty"`
}

type syncResponse struct {
	Success bool                `json:"success"`
	Results []domain.SyncResult `json:"results"`
}

// handlePostSync triggers an on-demand sync and returns its outcome
// synchronously; progress is not streamed. A second request for a shop with
// a sync in flight gets 409 without any upstream call being made.
func (h *Handler) handlePostSync(w http.ResponseWriter, r *http.Request) {
	shopDomain := chi.URLParam(r, "shop")

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Resource == "" {
		req.Resource = "all"
	}

	// A supplied credential (re)connects the shop before syncing.
	if req.AccessToken != "" {
		if _, err := h.sync.Connect(r.Context(), shopDomain, req.AccessToken); err != nil {
			h.respondError(w, err)
			return
		}
	}

	var results []domain.SyncResult
	var err error
	if req.Resource == "all" {
		results, err = h.sync.SyncAll(r.Context(), shopDomain)
	} else {
		var resource domain.ResourceType
		resource, err = domain.ParseResourceType(req.Resource)
		if err == nil {
			results, err = h.sync.SyncResource(r.Context(), shopDomain, resource)
		}
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	success := true
	for _, res := range results {
		if res.Error != "" {
			success = false
		}
	}
	h.respondJSON(w, http.StatusOK, syncResponse{Success: success, Results: results})
}
