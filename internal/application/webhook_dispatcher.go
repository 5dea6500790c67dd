package application

import (
	"context"

	"github.com/rs/zerolog"

	"storefront-sync-layer/internal/domain"
)

// WebhookHandler processes one family of webhook topics.
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to the first handler that
// claims the topic. Unclaimed topics are acknowledged and ignored.
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates an empty dispatcher.
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Registration order is match order.
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch routes the event.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	for _, h := range d.handlers {
		if h.CanHandle(event.Topic) {
			return h.Handle(ctx, event)
		}
	}
	d.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).
		Msg("No handler registered for webhook topic")
	return nil
}
