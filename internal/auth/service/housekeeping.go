package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
)

const DefaultHousekeepingInterval = time.Hour

// HousekeepingService sweeps expired refresh token slots. Stores that
// expire slots themselves report nothing to sweep.
type HousekeepingService struct {
	Slots    store.TokenSlots
	Logger   *slog.Logger
	Interval time.Duration
	Clock    func() time.Time
}

// NewHousekeepingService returns a sweeper. A non-positive interval means
// DefaultHousekeepingInterval.
func NewHousekeepingService(slots store.TokenSlots, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	return &HousekeepingService{Slots: slots, Logger: logger, Interval: interval}
}

// Run sweeps once immediately and then every Interval until ctx is done.
func (s *HousekeepingService) Run(ctx context.Context) error {
	s.Logger.Info("housekeeping started", "interval", s.Interval)
	defer s.Logger.Info("housekeeping stopped")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce deletes every expired slot and returns how many went. Failures
// are logged and count as zero; the next tick tries again.
func (s *HousekeepingService) RunOnce(ctx context.Context) int64 {
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock()
	}

	n, err := s.Slots.DeleteExpired(ctx, now)
	if err != nil {
		if ctx.Err() == nil {
			s.Logger.Error("failed to delete expired token slots", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.Logger.Info("expired token slots deleted", "count", n)
	}
	return n
}
