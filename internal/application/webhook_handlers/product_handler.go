package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"storefront-sync-layer/internal/domain"
	"storefront-sync-layer/internal/infrastructure/shopify"
	"storefront-sync-layer/internal/ports"
)

// ProductHandler upserts pushed product events into the mirror so the local
// copy is fresh between sync waves. Same upsert key as the full sync, so a
// push and a pull of the same record converge.
type ProductHandler struct {
	products ports.ProductRepository
	logger   zerolog.Logger
}

// NewProductHandler creates a product webhook handler.
func NewProductHandler(products ports.ProductRepository, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// CanHandle returns true for product create/update topics.
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == "products/create" || topic == "products/update"
}

// Handle upserts the pushed product.
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if event.Shop == "" {
		return fmt.Errorf("product webhook without shop domain")
	}

	var payload goshopify.Product
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse product webhook payload: %w", err)
	}

	record := shopify.ProductFromUpstream(event.Shop, payload)
	if err := h.products.Upsert(ctx, &record); err != nil {
		return fmt.Errorf("failed to upsert pushed product: %w", err)
	}

	h.logger.Info().Str("topic", event.Topic).Str("shop", event.Shop).
		Int64("productId", record.ShopifyID).Msg("Product refreshed from webhook")
	return nil
}
