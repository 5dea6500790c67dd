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

// CustomerHandler upserts pushed customer events into the mirror.
type CustomerHandler struct {
	customers ports.CustomerRepository
	logger    zerolog.Logger
}

// NewCustomerHandler creates a customer webhook handler.
func NewCustomerHandler(customers ports.CustomerRepository, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, logger: logger}
}

// CanHandle returns true for customer create/update topics.
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == "customers/create" || topic == "customers/update"
}

// Handle upserts the pushed customer.
func (h *CustomerHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if event.Shop == "" {
		return fmt.Errorf("customer webhook without shop domain")
	}

	var payload goshopify.Customer
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse customer webhook payload: %w", err)
	}

	record := shopify.CustomerFromUpstream(event.Shop, payload)
	if err := h.customers.Upsert(ctx, &record); err != nil {
		return fmt.Errorf("failed to upsert pushed customer: %w", err)
	}

	h.logger.Info().Str("topic", event.Topic).Str("shop", event.Shop).
		Int64("customerId", record.ShopifyID).Msg("Customer refreshed from webhook")
	return nil
}
