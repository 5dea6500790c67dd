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

// OrderHandler upserts pushed order events into the mirror.
type OrderHandler struct {
	orders ports.OrderRepository
	logger zerolog.Logger
}

// NewOrderHandler creates an order webhook handler.
func NewOrderHandler(orders ports.OrderRepository, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// CanHandle returns true for order lifecycle topics.
func (h *OrderHandler) CanHandle(topic string) bool {
	switch topic {
	case "orders/create",
		"orders/updated",
		"orders/cancelled",
		"orders/paid",
		"orders/fulfilled",
		"orders/partially_fulfilled":
		return true
	}
	return false
}

// Handle upserts the pushed order.
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	if event.Shop == "" {
		return fmt.Errorf("order webhook without shop domain")
	}

	var payload goshopify.Order
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse order webhook payload: %w", err)
	}

	record := shopify.OrderFromUpstream(event.Shop, payload)
	if err := h.orders.Upsert(ctx, &record); err != nil {
		return fmt.Errorf("failed to upsert pushed order: %w", err)
	}

	h.logger.Info().Str("topic", event.Topic).Str("shop", event.Shop).
		Int64("orderId", record.ShopifyID).
		Str("financialStatus", record.FinancialStatus).
		Str("fulfillmentStatus", record.FulfillmentStatus).
		Msg("Order refreshed from webhook")
	return nil
}
