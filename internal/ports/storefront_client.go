package ports

import (
	"context"
	"time"

	"storefront-sync-layer/internal/domain"
)

// StorefrontClient fetches paginated collections from the upstream platform.
//
// The FetchXxxPage methods take a since-id cursor (0 means "from the
// beginning") and return the page's records, the next cursor (the maximum
// upstream id seen in the page) and whether the page was terminal. A page is
// terminal when it is empty or shorter than the page-size cap.
//
// Implementations retry rate-limited requests internally without advancing
// the cursor; any other upstream error is returned to the caller.
type StorefrontClient interface {
	FetchShop(ctx context.Context, shopDomain, accessToken string) (*domain.Shop, error)

	FetchProductsPage(ctx context.Context, shopDomain, accessToken string, sinceID int64) ([]domain.Product, int64, bool, error)
	FetchOrdersPage(ctx context.Context, shopDomain, accessToken string, sinceID int64) ([]domain.Order, int64, bool, error)
	FetchCustomersPage(ctx context.Context, shopDomain, accessToken string, sinceID int64) ([]domain.Customer, int64, bool, error)

	// FetchOrdersCreatedSince serves the recent-orders fast path. It pages
	// internally and returns every order created after the given time.
	FetchOrdersCreatedSince(ctx context.Context, shopDomain, accessToken string, since time.Time) ([]domain.Order, error)
}

// EncryptionService encrypts credentials at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// AnalyticsCache is a best-effort response cache for derived analytics.
// A miss and a backend failure look the same to callers.
type AnalyticsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}
