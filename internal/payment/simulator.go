// Package payment simulates the external payment gateway: a fixed latency
// followed by a success or failure decided by an injectable Outcome.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Simulator struct {
	outcome Outcome
	latency time.Duration
	logger  zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewSimulator(outcome Outcome, latency time.Duration, logger zerolog.Logger) *Simulator {
	return &Simulator{
		outcome: outcome,
		latency: latency,
		logger:  logger.With().Str("component", "payment").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Initialize builds the pending record issued when checkout starts. It does
// not talk to the gateway.
func (s *Simulator) Initialize(userID string, amount decimal.Decimal) models.PaymentRecord {
	return models.PaymentRecord{
		Stage:         models.PaymentStagePending,
		UserID:        userID,
		Amount:        amount,
		Status:        models.PaymentStatusPending,
		TransactionID: s.newID(),
		PaymentDate:   s.now(),
	}
}

// Resolve charges amount for the order and returns a new resolved record
// with a fresh transaction id. A declined charge is a normal result, not an
// error. If ctx ends before the gateway answers, Resolve returns ErrTimeout
// and nothing was charged.
func (s *Simulator) Resolve(ctx context.Context, userID string, orderID int64, amount decimal.Decimal) (models.PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.PaymentRecord{}, fmt.Errorf("%w: payment for order %d: %w", apperr.ErrTimeout, orderID, err)
	}

	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		s.logger.Warn().Int64("order_id", orderID).Msg("payment resolution abandoned")
		return models.PaymentRecord{}, fmt.Errorf("%w: payment for order %d: %w", apperr.ErrTimeout, orderID, ctx.Err())
	}

	rec := models.PaymentRecord{
		Stage:         models.PaymentStageResolved,
		UserID:        userID,
		OrderID:       orderID,
		Amount:        amount,
		Status:        s.outcome.Decide(amount),
		TransactionID: s.newID(),
		PaymentDate:   s.now(),
	}
	s.logger.Info().
		Int64("order_id", orderID).
		Str("transaction_id", rec.TransactionID).
		Str("status", string(rec.Status)).
		Msg("payment resolved")
	return rec, nil
}
