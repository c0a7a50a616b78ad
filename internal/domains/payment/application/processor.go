package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ordersdomain "github.com/meganoshop/backend/internal/domains/orders/domain"
	ordersports "github.com/meganoshop/backend/internal/domains/orders/ports"
	"github.com/meganoshop/backend/internal/domains/payment/ports"
	"github.com/meganoshop/backend/internal/platform/cache"
)

var _ ports.Service = (*Processor)(nil)

// Processor settles orders. The entire outcome of Process rides on the
// order repository's Settle primitive: the order row stays exclusively
// locked from the confirming-payment transition until stock is deducted and
// the order is paid, and any error rolls the whole attempt back.
type Processor struct {
	orders  ordersports.Repository
	gateway ports.Gateway
	events  ordersports.EventPublisher
	cache   cache.Cache
	logger  *slog.Logger

	// failureDelay is the grace period before a rejected card pushes the
	// order to the failed state.
	failureDelay time.Duration
}

type Option func(*Processor)

func WithCache(c cache.Cache) Option {
	return func(p *Processor) {
		p.cache = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

func WithEvents(events ordersports.EventPublisher) Option {
	return func(p *Processor) {
		p.events = events
	}
}

func WithFailureDelay(d time.Duration) Option {
	return func(p *Processor) {
		p.failureDelay = d
	}
}

// NewProcessor wires the payment processor.
func NewProcessor(orders ordersports.Repository, gateway ports.Gateway, opts ...Option) *Processor {
	p := &Processor{
		orders:       orders,
		gateway:      gateway,
		events:       ordersports.NoopEvents{},
		failureDelay: 10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Process charges and settles one order. Concurrent calls for the same
// order serialize on the repository lock; whichever runs second fails the
// confirming-payment transition and deducts nothing.
func (p *Processor) Process(ctx context.Context, orderID int64) error {
	var settled *ordersdomain.Order
	err := p.orders.Settle(ctx, orderID, func(ctx context.Context, order *ordersdomain.Order) error {
		if err := p.gateway.Charge(ctx, order); err != nil {
			return fmt.Errorf("charge order %d: %w", order.ID, err)
		}
		settled = order
		return nil
	})
	if err != nil {
		p.logError(ctx, "payment settlement failed", err, slog.Int64("order.id", orderID))
		return err
	}
	p.invalidateOrders(ctx, settled.UserID)
	p.events.OrderPaid(ctx, settled)
	p.logInfo(ctx, "order paid", slog.Int64("order.id", orderID), slog.Float64("total", settled.TotalCost()))
	return nil
}

// MarkFailed moves the order to the failed state after the grace delay. It
// writes the status directly, without the settlement lock: a failure racing
// a successful settlement is acceptable and the last write wins.
func (p *Processor) MarkFailed(ctx context.Context, orderID int64) error {
	if p.failureDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.failureDelay):
		}
	}
	order, err := p.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ordersports.ErrNotFound) {
			p.logWarn(ctx, "cannot fail missing order", slog.Int64("order.id", orderID))
			return nil
		}
		return err
	}
	if err := p.orders.SetStatus(ctx, orderID, ordersdomain.StatusPaymentFailed); err != nil {
		p.logError(ctx, "failed to mark order failed", err, slog.Int64("order.id", orderID))
		return err
	}
	p.invalidateOrders(ctx, order.UserID)
	p.logInfo(ctx, "order marked failed", slog.Int64("order.id", orderID))
	return nil
}

func (p *Processor) invalidateOrders(ctx context.Context, userID int64) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, cache.OrdersKey(userID)); err != nil {
		p.logWarn(ctx, "failed to invalidate orders cache", slog.Int64("user.id", userID), slog.String("error", err.Error()))
	}
}

func (p *Processor) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		p.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
	}
}

func (p *Processor) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	}
}

func (p *Processor) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if p.logger != nil {
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		p.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
}
