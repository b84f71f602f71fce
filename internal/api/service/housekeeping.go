package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/seldemircin/minimal-api/pkg/clock"
)

// HousekeepingService periodically nulls out refresh tokens whose window has
// closed, so stale fingerprints don't linger in the users table.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Clock    clock.Clock
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the cleanup worker. If interval is 0 or
// negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, clk clock.Clock, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if clk == nil {
		clk = clock.System{}
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Clock:    clk,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut it
// down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress cleanup is done.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	n, err := s.Store.Users().ClearExpiredRefreshTokens(ctx, s.Clock.Now())
	if err != nil {
		s.Logger.Error("failed to clear expired refresh tokens", "error", err)
		return
	}
	if n > 0 {
		s.Logger.Info("cleared expired refresh tokens", "count", n)
	}
}
