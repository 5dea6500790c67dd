package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront-sync-layer/internal/domain"
	"storefront-sync-layer/internal/ports"
)

// Scheduler owns the two periodic drives of the sync engine: the full sync
// over all shops and the recent-orders fast path. Both tickers are started
// and stopped with the scheduler's lifecycle, and each tick body is exported
// so tests can drive it without wall-clock time.
type Scheduler struct {
	sync  *SyncService
	shops ports.ShopRepository

	fullInterval   time.Duration
	recentInterval time.Duration

	logger zerolog.Logger
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler over the sync service.
func NewScheduler(
	syncService *SyncService,
	shops ports.ShopRepository,
	fullInterval, recentInterval time.Duration,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		sync:           syncService,
		shops:          shops,
		fullInterval:   fullInterval,
		recentInterval: recentInterval,
		logger:         logger,
		stop:           make(chan struct{}),
	}
}

// Start launches both periodic loops. Each runs until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().
		Dur("full_interval", s.fullInterval).
		Dur("recent_interval", s.recentInterval).
		Msg("Sync scheduler started")

	s.wg.Add(2)
	go s.loop(ctx, s.fullInterval, s.RunFullSyncTick)
	go s.loop(ctx, s.recentInterval, s.RunRecentOrdersTick)
}

// Stop halts both loops and waits for in-progress ticks to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
	s.logger.Info().Msg("Sync scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// RunFullSyncTick starts a full sync for every known shop, sequentially.
// Shops already holding the guard are skipped, not queued.
func (s *Scheduler) RunFullSyncTick(ctx context.Context) {
	shops, err := s.shops.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list shops for scheduled sync")
		return
	}

	for _, shop := range shops {
		if _, err := s.sync.SyncAll(ctx, shop.Domain); err != nil {
			if errors.Is(err, domain.ErrSyncInProgress) {
				s.logger.Debug().Str("shop", shop.Domain).Msg("Skipping shop, sync already in progress")
				continue
			}
			s.logger.Error().Err(err).Str("shop", shop.Domain).Msg("Scheduled sync failed")
		}
	}
}

// RunRecentOrdersTick runs the best-effort recent-orders refresh.
func (s *Scheduler) RunRecentOrdersTick(ctx context.Context) {
	s.sync.SyncRecentOrders(ctx)
}
