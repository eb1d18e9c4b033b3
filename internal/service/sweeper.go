package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/cinema-parking-reservation/internal/metrics"
	"github.com/iliyamo/cinema-parking-reservation/internal/model"
	"github.com/iliyamo/cinema-parking-reservation/internal/queue"
	"github.com/iliyamo/cinema-parking-reservation/internal/repository"
)

const sweepBatch = 200

// SweepExpired releases held reservations whose deadline has passed and
// returns how many it released.  Holds confirmed or released concurrently
// are skipped.  Confirm enforces expiry on its own, so the sweep only keeps
// availability counts from drifting.
func (s *ParkingService) SweepExpired(ctx context.Context) (int, error) {
	total := 0
	for {
		expired, err := s.reservations.ListExpiredHolds(ctx, s.now(), sweepBatch)
		if err != nil {
			return total, err
		}
		released := 0
		for i := range expired {
			err := s.transition(ctx, &expired[i], model.StatusReleased, queue.EventHoldExpired)
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			if err != nil {
				return total, err
			}
			released++
		}
		total += released
		if len(expired) < sweepBatch || released == 0 {
			return total, nil
		}
	}
}

// RunSweeper calls SweepExpired every interval until ctx is cancelled.  It
// returns immediately when interval is not positive.
func (s *ParkingService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			metrics.AddSwept(n)
			if err != nil && ctx.Err() == nil {
				s.log.Error().Err(err).Msg("expired hold sweep failed")
				continue
			}
			if n > 0 {
				s.log.Info().Int("released", n).Msg("expired holds released")
			}
		}
	}
}
