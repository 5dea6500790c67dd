package shopify

import (
	"context"
	"fmt"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"storefront-sync-layer/internal/domain"
	"storefront-sync-layer/internal/infrastructure/metrics"
	"storefront-sync-layer/internal/ports"
)

// MaxPageSize is the upstream hard cap on collection page size. The client
// clamps to it at construction, so an oversized request can't be issued.
const MaxPageSize = 250

type client struct {
	apiKey      string
	apiSecret   string
	app         goshopify.App
	pageSize    int
	pacer       *Pacer
	retryConfig RetryConfig
	logger      zerolog.Logger
}

// listOptions is the since-id pagination query shared by all collections.
// SinceID 0 is the "beginning" sentinel and is omitted from the request.
type listOptions struct {
	SinceID int64 `url:"since_id,omitempty"`
	Limit   int   `url:"limit,omitempty"`
}

type orderListOptions struct {
	listOptions
	Status       string    `url:"status,omitempty"`
	CreatedAtMin time.Time `url:"created_at_min,omitempty"`
}

// NewClient creates a storefront client with default pacing and retry.
func NewClient(apiKey, apiSecret string, logger zerolog.Logger) ports.StorefrontClient {
	return NewClientWithOptions(apiKey, apiSecret, MaxPageSize, NewPacer(logger), DefaultRetryConfig(), logger)
}

// NewClientWithOptions creates a storefront client with explicit page size,
// pacing and retry configuration. pageSize is clamped to MaxPageSize.
func NewClientWithOptions(
	apiKey, apiSecret string,
	pageSize int,
	pacer *Pacer,
	retryConfig RetryConfig,
	logger zerolog.Logger,
) ports.StorefrontClient {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		pageSize:    pageSize,
		pacer:       pacer,
		retryConfig: retryConfig,
		logger:      logger,
	}
}

func (c *client) createClient(shopDomain, accessToken string) (*goshopify.Client, error) {
	sc, err := goshopify.NewClient(c.app, shopDomain, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return sc, nil
}

func (c *client) pace(ctx context.Context) error {
	if c.pacer == nil {
		return nil
	}
	return c.pacer.Wait(ctx)
}

// FetchShop retrieves current shop metadata.
func (c *client) FetchShop(ctx context.Context, shopDomain, accessToken string) (*domain.Shop, error) {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	shop, err := fetchWithRetry(ctx, c.retryConfig, c.logger, func() (*goshopify.Shop, error) {
		return sc.Shop.Get(ctx, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return ShopFromUpstream(shop), nil
}

// FetchProductsPage fetches one products page starting after sinceID.
func (c *client) FetchProductsPage(ctx context.Context, shopDomain, accessToken string, sinceID int64) ([]domain.Product, int64, bool, error) {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, sinceID, false, err
	}
	if err := c.pace(ctx); err != nil {
		return nil, sinceID, false, err
	}
	opts := listOptions{SinceID: sinceID, Limit: c.pageSize}
	products, err := fetchWithRetry(ctx, c.retryConfig, c.logger, func() ([]goshopify.Product, error) {
		return sc.Product.List(ctx, opts)
	})
	if err != nil {
		return nil, sinceID, false, fmt.Errorf("failed to list products: %w", err)
	}
	metrics.PagesFetched.WithLabelValues(string(domain.ResourceProducts)).Inc()

	records := make([]domain.Product, 0, len(products))
	next := sinceID
	for _, p := range products {
		rec := ProductFromUpstream(shopDomain, p)
		if rec.ShopifyID > next {
			next = rec.ShopifyID
		}
		records = append(records, rec)
	}
	return records, next, len(products) < c.pageSize, nil
}

// FetchOrdersPage fetches one orders page starting after sinceID. All order
// statuses are included; the mirror is not limited to open orders.
func (c *client) FetchOrdersPage(ctx context.Context, shopDomain, accessToken string, sinceID int64) ([]domain.Order, int64, bool, error) {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, sinceID, false, err
	}
	if err := c.pace(ctx); err != nil {
		return nil, sinceID, false, err
	}
	opts := orderListOptions{
		listOptions: listOptions{SinceID: sinceID, Limit: c.pageSize},
		Status:      "any",
	}
	orders, err := fetchWithRetry(ctx, c.retryConfig, c.logger, func() ([]goshopify.Order, error) {
		return sc.Order.List(ctx, opts)
	})
	if err != nil {
		return nil, sinceID, false, fmt.Errorf("failed to list orders: %w", err)
	}
	metrics.PagesFetched.WithLabelValues(string(domain.ResourceOrders)).Inc()

	records := make([]domain.Order, 0, len(orders))
	next := sinceID
	for _, o := range orders {
		rec := OrderFromUpstream(shopDomain, o)
		if rec.ShopifyID > next {
			next = rec.ShopifyID
		}
		records = append(records, rec)
	}
	return records, next, len(orders) < c.pageSize, nil
}

// FetchCustomersPage fetches one customers page starting after sinceID.
func (c *client) FetchCustomersPage(ctx context.Context, shopDomain, accessToken string, sinceID int64) ([]domain.Customer, int64, bool, error) {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, sinceID, false, err
	}
	if err := c.pace(ctx); err != nil {
		return nil, sinceID, false, err
	}
	opts := listOptions{SinceID: sinceID, Limit: c.pageSize}
	customers, err := fetchWithRetry(ctx, c.retryConfig, c.logger, func() ([]goshopify.Customer, error) {
		return sc.Customer.List(ctx, opts)
	})
	if err != nil {
		return nil, sinceID, false, fmt.Errorf("failed to list customers: %w", err)
	}
	metrics.PagesFetched.WithLabelValues(string(domain.ResourceCustomers)).Inc()

	records := make([]domain.Customer, 0, len(customers))
	next := sinceID
	for _, cu := range customers {
		rec := CustomerFromUpstream(shopDomain, cu)
		if rec.ShopifyID > next {
			next = rec.ShopifyID
		}
		records = append(records, rec)
	}
	return records, next, len(customers) < c.pageSize, nil
}

// FetchOrdersCreatedSince retrieves every order created after the given time,
// paging internally with the same cursor discipline as the full sync.
func (c *client) FetchOrdersCreatedSince(ctx context.Context, shopDomain, accessToken string, since time.Time) ([]domain.Order, error) {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}

	var all []domain.Order
	cursor := int64(0)
	for {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}
		opts := orderListOptions{
			listOptions:  listOptions{SinceID: cursor, Limit: c.pageSize},
			Status:       "any",
			CreatedAtMin: since,
		}
		orders, err := fetchWithRetry(ctx, c.retryConfig, c.logger, func() ([]goshopify.Order, error) {
			return sc.Order.List(ctx, opts)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list recent orders: %w", err)
		}
		for _, o := range orders {
			rec := OrderFromUpstream(shopDomain, o)
			if rec.ShopifyID > cursor {
				cursor = rec.ShopifyID
			}
			all = append(all, rec)
		}
		if len(orders) < c.pageSize {
			return all, nil
		}
	}
}
