package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-sync-layer/internal/domain"
)

type recordingHandler struct {
	topics  map[string]bool
	handled []string
	err     error
}

func (h *recordingHandler) CanHandle(topic string) bool {
	return h.topics[topic]
}

func (h *recordingHandler) Handle(_ context.Context, event *domain.WebhookEvent) error {
	h.handled = append(h.handled, event.Topic)
	return h.err
}

func TestDispatchRoutesToMatchingHandler(t *testing.T) {
	products := &recordingHandler{topics: map[string]bool{"products/update": true}}
	orders := &recordingHandler{topics: map[string]bool{"orders/create": true}}

	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(products)
	d.RegisterHandler(orders)

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "orders/create"})
	require.NoError(t, err)

	assert.Empty(t, products.handled)
	assert.Equal(t, []string{"orders/create"}, orders.handled)
}

func TestDispatchFirstMatchWins(t *testing.T) {
	first := &recordingHandler{topics: map[string]bool{"products/update": true}}
	second := &recordingHandler{topics: map[string]bool{"products/update": true}}

	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(first)
	d.RegisterHandler(second)

	require.NoError(t, d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "products/update"}))
	assert.Len(t, first.handled, 1)
	assert.Empty(t, second.handled)
}

func TestDispatchUnknownTopicIsAcknowledged(t *testing.T) {
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(&recordingHandler{topics: map[string]bool{"orders/create": true}})

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "themes/publish"})
	assert.NoError(t, err)
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	h := &recordingHandler{
		topics: map[string]bool{"orders/create": true},
		err:    fmt.Errorf("write failed"),
	}
	d := NewWebhookDispatcher(zerolog.Nop())
	d.RegisterHandler(h)

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "orders/create"})
	assert.Error(t, err)
}
