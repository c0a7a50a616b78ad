// Package gateway holds payment provider adapters. Only the simulated
// provider exists today; a real provider implements the same port.
package gateway

import (
	"context"
	"time"

	ordersdomain "github.com/meganoshop/backend/internal/domains/orders/domain"
	"github.com/meganoshop/backend/internal/domains/payment/ports"
)

var _ ports.Gateway = (*Simulated)(nil)

// Simulated stands in for an external payment provider: it waits the
// configured processing time and approves the charge. ChargeFunc overrides
// the outcome, mainly for tests.
type Simulated struct {
	Delay      time.Duration
	ChargeFunc func(ctx context.Context, order *ordersdomain.Order) error
}

func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{Delay: delay}
}

func (g *Simulated) Charge(ctx context.Context, order *ordersdomain.Order) error {
	if g.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.Delay):
		}
	}
	if g.ChargeFunc != nil {
		return g.ChargeFunc(ctx, order)
	}
	return nil
}
