package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"storefront-sync-layer/internal/domain"
	"storefront-sync-layer/internal/infrastructure/metrics"
	"storefront-sync-layer/internal/ports"
)

// RecentOrdersWindow is the trailing window of the recent-orders fast path.
const RecentOrdersWindow = 24 * time.Hour

// SyncService orchestrates full and partial syncs: it owns the per-tenant
// concurrency guard and composes fetch, persist and status tracking into one
// resource sync. It depends on ports only.
type SyncService struct {
	shops      ports.ShopRepository
	products   ports.ProductRepository
	orders     ports.OrderRepository
	customers  ports.CustomerRepository
	status     ports.SyncStatusRepository
	fetcher    ports.StorefrontClient
	encryption ports.EncryptionService
	guard      *InflightGuard
	logger     zerolog.Logger

	// fullSyncInterval feeds nextScheduledSync on successful completion.
	fullSyncInterval time.Duration
}

// NewSyncService creates a sync orchestrator.
func NewSyncService(
	shops ports.ShopRepository,
	products ports.ProductRepository,
	orders ports.OrderRepository,
	customers ports.CustomerRepository,
	status ports.SyncStatusRepository,
	fetcher ports.StorefrontClient,
	encryption ports.EncryptionService,
	guard *InflightGuard,
	logger zerolog.Logger,
	fullSyncInterval time.Duration,
) *SyncService {
	return &SyncService{
		shops:            shops,
		products:         products,
		orders:           orders,
		customers:        customers,
		status:           status,
		fetcher:          fetcher,
		encryption:       encryption,
		guard:            guard,
		logger:           logger,
		fullSyncInterval: fullSyncInterval,
	}
}

// Connect registers (or re-registers) a shop: it fetches shop metadata with
// the supplied access token and stores the shop with the token encrypted.
// This is the only way a shop enters the mirror; the sync engine itself
// never deletes one.
func (s *SyncService) Connect(ctx context.Context, shopDomain, accessToken string) (*domain.Shop, error) {
	if accessToken == "" {
		return nil, domain.ErrMissingAccessToken
	}

	shop, err := s.fetcher.FetchShop(ctx, shopDomain, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shop metadata: %w", err)
	}

	encrypted, err := s.encryption.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	shop.AccessToken = encrypted

	if existing, err := s.shops.GetByDomain(ctx, shop.Domain); err == nil && existing != nil {
		shop.CreatedAt = existing.CreatedAt
	}

	if err := s.shops.Save(ctx, shop); err != nil {
		return nil, fmt.Errorf("failed to save shop: %w", err)
	}

	s.logger.Info().Str("shop", shop.Domain).Msg("Shop connected")
	return shop, nil
}

// resolveShop loads the shop and its decrypted access token. A missing shop
// or missing credential aborts before any collection fetch.
func (s *SyncService) resolveShop(ctx context.Context, shopDomain string) (*domain.Shop, string, error) {
	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrShopNotFound, shopDomain)
	}
	if shop.AccessToken == "" {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrMissingAccessToken, shopDomain)
	}
	token, err := s.encryption.Decrypt(shop.AccessToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return shop, token, nil
}

// SyncAll runs a full sync for one shop: products, then orders, then
// customers, sequentially. Failure of one resource does not abort the
// others; each outcome lands in its own SyncResult and status document.
// Returns ErrSyncInProgress if the shop already holds the guard.
func (s *SyncService) SyncAll(ctx context.Context, shopDomain string) ([]domain.SyncResult, error) {
	return s.runGuarded(ctx, shopDomain, domain.AllResourceTypes)
}

// SyncResource runs a guarded sync of a single resource for one shop.
func (s *SyncService) SyncResource(ctx context.Context, shopDomain string, resource domain.ResourceType) ([]domain.SyncResult, error) {
	return s.runGuarded(ctx, shopDomain, []domain.ResourceType{resource})
}

func (s *SyncService) runGuarded(ctx context.Context, shopDomain string, resources []domain.ResourceType) ([]domain.SyncResult, error) {
	if !s.guard.TryAcquire(shopDomain) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSyncInProgress, shopDomain)
	}
	metrics.SyncsInFlight.Inc()
	defer func() {
		s.guard.Release(shopDomain)
		metrics.SyncsInFlight.Dec()
	}()

	shop, token, err := s.resolveShop(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	s.refreshShopMetadata(ctx, shop, token)

	results := make([]domain.SyncResult, 0, len(resources))
	for _, resource := range resources {
		results = append(results, s.syncResource(ctx, shop.Domain, token, resource))
	}
	return results, nil
}

// refreshShopMetadata updates the stored shop document from upstream. A
// failure here degrades formatting metadata, not the sync, so it only logs.
func (s *SyncService) refreshShopMetadata(ctx context.Context, shop *domain.Shop, token string) {
	fresh, err := s.fetcher.FetchShop(ctx, shop.Domain, token)
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", shop.Domain).Msg("Failed to refresh shop metadata")
		return
	}
	fresh.AccessToken = shop.AccessToken
	fresh.CreatedAt = shop.CreatedAt
	if err := s.shops.Save(ctx, fresh); err != nil {
		s.logger.Warn().Err(err).Str("shop", shop.Domain).Msg("Failed to save refreshed shop metadata")
	}
}

// syncResource runs the full page loop for one (shop, resource) pair. The
// cursor starts at 0 and advances to the maximum upstream id of each page;
// the loop terminates on the first short or empty page. A fetch error aborts
// this resource only; a single bad record is counted and skipped.
func (s *SyncService) syncResource(ctx context.Context, shopDomain, token string, resource domain.ResourceType) domain.SyncResult {
	start := time.Now()
	result := domain.SyncResult{Resource: resource}

	if err := s.status.MarkStarted(ctx, shopDomain, resource); err != nil {
		s.logger.Warn().Err(err).Str("shop", shopDomain).Str("resource", string(resource)).
			Msg("Failed to mark sync started")
	}

	s.logger.Info().Str("shop", shopDomain).Str("resource", string(resource)).Msg("Sync started")

	cursor := int64(0)
	for {
		persists, next, last, err := s.fetchPage(ctx, shopDomain, token, resource, cursor)
		if err != nil {
			result.Error = err.Error()
			s.logger.Error().Err(err).Str("shop", shopDomain).Str("resource", string(resource)).
				Int64("cursor", cursor).Msg("Sync aborted")
			if merr := s.status.MarkErrored(ctx, shopDomain, resource, err.Error()); merr != nil {
				s.logger.Warn().Err(merr).Str("shop", shopDomain).Msg("Failed to mark sync errored")
			}
			return result
		}
		result.Pages++

		for _, persist := range persists {
			if err := persist(ctx); err != nil {
				// One bad record must not abort the page.
				result.Failed++
				metrics.RecordFailures.WithLabelValues(string(resource)).Inc()
				s.logger.Warn().Err(err).Str("shop", shopDomain).Str("resource", string(resource)).
					Msg("Failed to upsert record")
				continue
			}
			result.Synced++
			metrics.RecordsUpserted.WithLabelValues(string(resource)).Inc()
		}

		if last {
			break
		}
		cursor = next
		if err := s.status.UpdateCursor(ctx, shopDomain, resource, cursor); err != nil {
			s.logger.Warn().Err(err).Str("shop", shopDomain).Str("resource", string(resource)).
				Msg("Failed to record sync cursor")
		}
	}

	nextSync := time.Now().Add(s.fullSyncInterval)
	if err := s.status.MarkCompleted(ctx, shopDomain, resource, result.Synced, nextSync); err != nil {
		s.logger.Warn().Err(err).Str("shop", shopDomain).Str("resource", string(resource)).
			Msg("Failed to mark sync completed")
	}
	metrics.SyncDuration.WithLabelValues(string(resource)).Observe(time.Since(start).Seconds())

	s.logger.Info().Str("shop", shopDomain).Str("resource", string(resource)).
		Int("synced", result.Synced).Int("failed", result.Failed).Int("pages", result.Pages).
		Msg("Sync completed")
	return result
}

// fetchPage pulls one page for the resource and returns its records as
// persist closures, so the page loop above stays resource-agnostic.
func (s *SyncService) fetchPage(ctx context.Context, shopDomain, token string, resource domain.ResourceType, cursor int64) ([]func(context.Context) error, int64, bool, error) {
	switch resource {
	case domain.ResourceProducts:
		records, next, last, err := s.fetcher.FetchProductsPage(ctx, shopDomain, token, cursor)
		if err != nil {
			return nil, cursor, false, err
		}
		persists := make([]func(context.Context) error, len(records))
		for i := range records {
			rec := records[i]
			persists[i] = func(ctx context.Context) error { return s.products.Upsert(ctx, &rec) }
		}
		return persists, next, last, nil

	case domain.ResourceOrders:
		records, next, last, err := s.fetcher.FetchOrdersPage(ctx, shopDomain, token, cursor)
		if err != nil {
			return nil, cursor, false, err
		}
		persists := make([]func(context.Context) error, len(records))
		for i := range records {
			rec := records[i]
			persists[i] = func(ctx context.Context) error { return s.orders.Upsert(ctx, &rec) }
		}
		return persists, next, last, nil

	case domain.ResourceCustomers:
		records, next, last, err := s.fetcher.FetchCustomersPage(ctx, shopDomain, token, cursor)
		if err != nil {
			return nil, cursor, false, err
		}
		persists := make([]func(context.Context) error, len(records))
		for i := range records {
			rec := records[i]
			persists[i] = func(ctx context.Context) error { return s.customers.Upsert(ctx, &rec) }
		}
		return persists, next, last, nil
	}
	return nil, cursor, false, fmt.Errorf("%w: %q", domain.ErrUnknownResource, resource)
}

// SyncRecentOrders is the hourly fast path: for every shop it fetches orders
// created in the trailing window and upserts them directly. It deliberately
// bypasses the in-flight guard and does not touch SyncStatus, so it can
// interleave with a full sync on the same shop's orders; both writers use
// the same atomic upsert, so the worst case is a transient last-write-wins
// race between two copies of the same upstream record.
func (s *SyncService) SyncRecentOrders(ctx context.Context) {
	shops, err := s.shops.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list shops for recent-orders sync")
		return
	}

	since := time.Now().Add(-RecentOrdersWindow)
	for _, shop := range shops {
		if shop.AccessToken == "" {
			continue
		}
		token, err := s.encryption.Decrypt(shop.AccessToken)
		if err != nil {
			s.logger.Warn().Err(err).Str("shop", shop.Domain).Msg("Failed to decrypt token for recent-orders sync")
			continue
		}

		orders, err := s.fetcher.FetchOrdersCreatedSince(ctx, shop.Domain, token, since)
		if err != nil {
			s.logger.Warn().Err(err).Str("shop", shop.Domain).Msg("Recent-orders sync failed")
			continue
		}

		upserted := 0
		for i := range orders {
			if err := s.orders.Upsert(ctx, &orders[i]); err != nil {
				s.logger.Warn().Err(err).Str("shop", shop.Domain).Msg("Failed to upsert recent order")
				continue
			}
			upserted++
			metrics.RecordsUpserted.WithLabelValues(string(domain.ResourceOrders)).Inc()
		}
		s.logger.Info().Str("shop", shop.Domain).Int("orders", upserted).Msg("Recent orders refreshed")
	}
}
