package shopify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// InterPageDelay is the courtesy delay between successive page requests to
// one upstream account. It keeps a healthy sync under typical rate ceilings;
// it is not what guarantees correctness under a 429 (see retry.go).
const InterPageDelay = 100 * time.Millisecond

// Pacer throttles upstream requests with a token bucket so consecutive pages
// are spaced by at least InterPageDelay.
type Pacer struct {
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewPacer creates a pacer with the default inter-page spacing.
func NewPacer(logger zerolog.Logger) *Pacer {
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(InterPageDelay), 1),
		logger:  logger,
	}
}

// Wait blocks until the next request is allowed or the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
