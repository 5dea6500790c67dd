package shopify

import (
	"context"
	"errors"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"storefront-sync-layer/internal/infrastructure/metrics"
)

// RetryConfig controls how rate-limited requests are retried. Only the
// upstream "too many requests" signal is retried; every other error is
// permanent from the fetcher's point of view and propagates to the caller.
type RetryConfig struct {
	// RateLimitDelay is the fixed sleep before retrying a 429'd page.
	RateLimitDelay time.Duration
}

// DefaultRetryConfig matches the upstream guidance of backing off for two
// seconds and trying the same page again, with no local retry cap. The only
// bound is the caller's context.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{RateLimitDelay: 2 * time.Second}
}

// IsRateLimited reports whether err is the upstream too-many-requests signal.
func IsRateLimited(err error) bool {
	var rle goshopify.RateLimitError
	return errors.As(err, &rle)
}

// fetchWithRetry runs op, sleeping RateLimitDelay and retrying at the same
// cursor for as long as the upstream keeps answering 429. The context passed
// by the caller is the only thing that stops it.
func fetchWithRetry[T any](ctx context.Context, cfg RetryConfig, logger zerolog.Logger, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		out, err := op()
		if err == nil {
			return out, nil
		}
		if IsRateLimited(err) {
			metrics.RateLimitHits.Inc()
			logger.Warn().
				Dur("backoff", cfg.RateLimitDelay).
				Msg("Upstream rate limit hit, retrying same page")
			return out, err
		}
		return out, backoff.Permanent(err)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(cfg.RateLimitDelay)),
		backoff.WithMaxElapsedTime(0),
	)
}
