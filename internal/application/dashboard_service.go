package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"storefront-sync-layer/internal/domain"
	"storefront-sync-layer/internal/ports"
)

// analyticsCacheTTL bounds the staleness of a cached analytics report.
const analyticsCacheTTL = 5 * time.Minute

// AnalyticsPeriods maps the accepted period names to their trailing windows.
var AnalyticsPeriods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// AnalyticsReport is the derived dashboard summary computed over the
// mirrored data, never against the live upstream.
type AnalyticsReport struct {
	Period            string                 `json:"period"`
	TotalRevenue      float64                `json:"total_revenue"`
	OrderCount        int64                  `json:"order_count"`
	AverageOrderValue float64                `json:"average_order_value"`
	CustomerCount     int64                  `json:"customer_count"`
	ProductCount      int64                  `json:"product_count"`
	TopProducts       []ports.TopProduct     `json:"top_products"`
	RecentOrders      []domain.Order         `json:"recent_orders"`
	MonthlyRevenue    []ports.MonthlyRevenue `json:"monthly_revenue"`
	GeneratedAt       time.Time              `json:"generated_at"`
}

// DashboardService is the cached-read facade over the mirror. It has
// read-only access; it never mutates mirrored records.
type DashboardService struct {
	shops     ports.ShopRepository
	products  ports.ProductRepository
	orders    ports.OrderRepository
	customers ports.CustomerRepository
	status    ports.SyncStatusRepository
	cache     ports.AnalyticsCache
	logger    zerolog.Logger
}

// NewDashboardService creates the read facade.
func NewDashboardService(
	shops ports.ShopRepository,
	products ports.ProductRepository,
	orders ports.OrderRepository,
	customers ports.CustomerRepository,
	status ports.SyncStatusRepository,
	cache ports.AnalyticsCache,
	logger zerolog.Logger,
) *DashboardService {
	return &DashboardService{
		shops:     shops,
		products:  products,
		orders:    orders,
		customers: customers,
		status:    status,
		cache:     cache,
		logger:    logger,
	}
}

// GetShop returns tenant metadata, or ErrShopNotFound.
func (s *DashboardService) GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrShopNotFound, shopDomain)
	}
	return shop, nil
}

// GetProducts serves a filtered product page.
func (s *DashboardService) GetProducts(ctx context.Context, q ports.ProductQuery) (*ports.ProductPage, error) {
	return s.products.List(ctx, q)
}

// GetOrders serves a filtered order page with aggregates.
func (s *DashboardService) GetOrders(ctx context.Context, q ports.OrderQuery) (*ports.OrderPage, error) {
	return s.orders.List(ctx, q)
}

// GetCustomers serves a filtered customer page with aggregates.
func (s *DashboardService) GetCustomers(ctx context.Context, q ports.CustomerQuery) (*ports.CustomerPage, error) {
	return s.customers.List(ctx, q)
}

// GetSyncStatus returns the last-known sync state per resource for a shop.
func (s *DashboardService) GetSyncStatus(ctx context.Context, shopDomain string) (map[domain.ResourceType]domain.SyncStatus, error) {
	return s.status.GetStatus(ctx, shopDomain)
}

// GetAnalytics computes the dashboard summary for a period, cache-aside.
func (s *DashboardService) GetAnalytics(ctx context.Context, shopDomain, period string) (*AnalyticsReport, error) {
	window, ok := AnalyticsPeriods[period]
	if !ok {
		return nil, fmt.Errorf("invalid analytics period: %q", period)
	}

	key := fmt.Sprintf("analytics:%s:%s", shopDomain, period)
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			var report AnalyticsReport
			if err := json.Unmarshal(data, &report); err == nil {
				return &report, nil
			}
			s.logger.Warn().Str("key", key).Msg("Discarding undecodable cached analytics")
		}
	}

	since := time.Now().Add(-window)

	aggregates, err := s.orders.RevenueSince(ctx, shopDomain, since)
	if err != nil {
		return nil, err
	}
	top, err := s.orders.TopProducts(ctx, shopDomain, since, 10)
	if err != nil {
		return nil, err
	}
	recent, err := s.orders.Recent(ctx, shopDomain, 10)
	if err != nil {
		return nil, err
	}
	trend, err := s.orders.MonthlyRevenue(ctx, shopDomain, 12)
	if err != nil {
		return nil, err
	}
	customerCount, err := s.customers.CountForShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	productCount, err := s.products.CountForShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	report := &AnalyticsReport{
		Period:            period,
		TotalRevenue:      aggregates.TotalRevenue,
		OrderCount:        aggregates.OrderCount,
		AverageOrderValue: aggregates.AverageOrderValue,
		CustomerCount:     customerCount,
		ProductCount:      productCount,
		TopProducts:       top,
		RecentOrders:      recent,
		MonthlyRevenue:    trend,
		GeneratedAt:       time.Now(),
	}

	if s.cache != nil {
		if data, err := json.Marshal(report); err == nil {
			s.cache.Set(ctx, key, data, analyticsCacheTTL)
		}
	}
	return report, nil
}
