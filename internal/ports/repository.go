package ports

import (
	"context"
	"time"

	"storefront-sync-layer/internal/domain"
)

// Pagination is the metadata returned with every facade page.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ProductQuery describes a filtered product read.
type ProductQuery struct {
	ShopDomain  string
	Page        int
	Limit       int
	Search      string
	Vendor      string
	ProductType string
	Status      string
	SortBy      string
	SortOrder   string
}

// ProductPage is one page of mirrored products plus filter facets.
type ProductPage struct {
	Products     []domain.Product `json:"products"`
	Pagination   Pagination       `json:"pagination"`
	Vendors      []string         `json:"vendors"`
	ProductTypes []string         `json:"product_types"`
	LastSynced   *time.Time       `json:"last_synced,omitempty"`
}

// OrderQuery describes a filtered order read.
type OrderQuery struct {
	ShopDomain        string
	Page              int
	Limit             int
	Search            string
	FinancialStatus   string
	FulfillmentStatus string
	DateFrom          *time.Time
	DateTo            *time.Time
	SortBy            string
	SortOrder         string
}

// OrderAggregates are computed over the filtered set, not the whole shop.
type OrderAggregates struct {
	TotalRevenue      float64 `json:"total_revenue"`
	OrderCount        int64   `json:"order_count"`
	AverageOrderValue float64 `json:"average_order_value"`
}

type OrderPage struct {
	Orders     []domain.Order  `json:"orders"`
	Pagination Pagination      `json:"pagination"`
	Aggregates OrderAggregates `json:"aggregates"`
	LastSynced *time.Time      `json:"last_synced,omitempty"`
}

// CustomerQuery describes a filtered customer read.
type CustomerQuery struct {
	ShopDomain string
	Page       int
	Limit      int
	Search     string
	State      string
	MinOrders  *int
	MaxOrders  *int
	MinSpent   *float64
	MaxSpent   *float64
	SortBy     string
	SortOrder  string
}

type CustomerAggregates struct {
	CustomerCount int64   `json:"customer_count"`
	TotalSpent    float64 `json:"total_spent"`
	AverageOrders float64 `json:"average_orders"`
}

type CustomerPage struct {
	Customers  []domain.Customer  `json:"customers"`
	Pagination Pagination         `json:"pagination"`
	Aggregates CustomerAggregates `json:"aggregates"`
	LastSynced *time.Time         `json:"last_synced,omitempty"`
}

// TopProduct is one entry of the analytics top-N list.
type TopProduct struct {
	ProductID int64   `json:"product_id" bson:"_id"`
	Title     string  `json:"title" bson:"title"`
	Quantity  int64   `json:"quantity" bson:"quantity"`
	Revenue   float64 `json:"revenue" bson:"revenue"`
}

// MonthlyRevenue is one bucket of the 12-month trend.
type MonthlyRevenue struct {
	Month   string  `json:"month" bson:"_id"`
	Revenue float64 `json:"revenue" bson:"revenue"`
	Orders  int64   `json:"orders" bson:"orders"`
}

// ShopRepository persists connected shops. Shops are created on first
// connection and refreshed on every metadata fetch, never deleted here.
type ShopRepository interface {
	Save(ctx context.Context, shop *domain.Shop) error
	GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)
	List(ctx context.Context) ([]*domain.Shop, error)
}

// ProductRepository owns writes to the mirrored products collection.
type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) error
	List(ctx context.Context, q ProductQuery) (*ProductPage, error)
	CountForShop(ctx context.Context, shopDomain string) (int64, error)
}

// OrderRepository owns writes to the mirrored orders collection and serves
// the order-derived analytics reads.
type OrderRepository interface {
	Upsert(ctx context.Context, order *domain.Order) error
	List(ctx context.Context, q OrderQuery) (*OrderPage, error)
	RevenueSince(ctx context.Context, shopDomain string, since time.Time) (OrderAggregates, error)
	TopProducts(ctx context.Context, shopDomain string, since time.Time, limit int) ([]TopProduct, error)
	Recent(ctx context.Context, shopDomain string, limit int) ([]domain.Order, error)
	MonthlyRevenue(ctx context.Context, shopDomain string, months int) ([]MonthlyRevenue, error)
}

// CustomerRepository owns writes to the mirrored customers collection.
type CustomerRepository interface {
	Upsert(ctx context.Context, customer *domain.Customer) error
	List(ctx context.Context, q CustomerQuery) (*CustomerPage, error)
	CountForShop(ctx context.Context, shopDomain string) (int64, error)
}

// SyncStatusRepository tracks per (shop, resource) sync state. One document
// per pair, upserted in place.
type SyncStatusRepository interface {
	MarkStarted(ctx context.Context, shopDomain string, resource domain.ResourceType) error
	MarkCompleted(ctx context.Context, shopDomain string, resource domain.ResourceType, totalRecords int, nextSync time.Time) error
	MarkErrored(ctx context.Context, shopDomain string, resource domain.ResourceType, message string) error
	UpdateCursor(ctx context.Context, shopDomain string, resource domain.ResourceType, cursor int64) error
	GetStatus(ctx context.Context, shopDomain string) (map[domain.ResourceType]domain.SyncStatus, error)
}
