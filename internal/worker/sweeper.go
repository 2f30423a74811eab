package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PendingOrderCanceller cancels Pending orders placed before cutoff.
type PendingOrderCanceller interface {
	CancelStalePendingOrders(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper is the background "garbage collector" for orders whose payment
// never resolved (timed out, or the client never called pay).
type Sweeper struct {
	orders   PendingOrderCanceller
	ttl      time.Duration
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

func NewSweeper(orders PendingOrderCanceller, ttl, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		orders:   orders,
		ttl:      ttl,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("ttl", s.ttl).Dur("interval", s.interval).Msg("monitoring for overdue orders")
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("sweep failed")
		}
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce cancels every Pending order older than the TTL.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl)
	n, err := s.orders.CancelStalePendingOrders(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("cancelled", n).Time("cutoff", cutoff).Msg("cancelled overdue orders")
	}
	return n, nil
}
