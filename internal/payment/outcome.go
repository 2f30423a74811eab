package payment

import (
	"math/rand"
	"sync"

	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/shopspring/decimal"
)

// Outcome decides whether a simulated charge succeeds.
type Outcome interface {
	Decide(amount decimal.Decimal) models.PaymentStatus
}

// RandomOutcome succeeds with a fixed probability. The source is guarded by
// a mutex because math/rand sources are not safe for concurrent use.
type RandomOutcome struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
}

func NewRandomOutcome(src rand.Source, successRate float64) *RandomOutcome {
	return &RandomOutcome{rng: rand.New(src), successRate: successRate}
}

func (o *RandomOutcome) Decide(decimal.Decimal) models.PaymentStatus {
	o.mu.Lock()
	roll := o.rng.Float64()
	o.mu.Unlock()

	if roll < o.successRate {
		return models.PaymentStatusSuccess
	}
	return models.PaymentStatusFailed
}

// FixedOutcome always returns the same status.
type FixedOutcome models.PaymentStatus

func (o FixedOutcome) Decide(decimal.Decimal) models.PaymentStatus {
	return models.PaymentStatus(o)
}
