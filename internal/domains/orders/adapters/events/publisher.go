// Package events publishes order lifecycle events to Kafka for downstream
// consumers. Publishing is fire-and-forget: checkout never fails because a
// broker is down.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/meganoshop/backend/internal/domains/orders/domain"
	"github.com/meganoshop/backend/internal/domains/orders/ports"
	"github.com/meganoshop/backend/internal/platform/events"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher emits order events through the shared Kafka producer, keyed by
// order ID so events for one order stay in partition order.
type Publisher struct {
	producer *events.Producer
	logger   *slog.Logger
}

func NewPublisher(producer *events.Producer, logger *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

type orderEvent struct {
	Type       string           `json:"type"`
	OrderID    int64            `json:"orderId"`
	UserID     int64            `json:"userId"`
	Status     string           `json:"status"`
	TotalCost  float64          `json:"totalCost"`
	Lines      []orderEventLine `json:"lines"`
	OccurredAt time.Time        `json:"occurredAt"`
}

type orderEventLine struct {
	ProductID int64   `json:"productId"`
	Count     int     `json:"count"`
	Price     float64 `json:"price"`
}

func (p *Publisher) OrderPlaced(ctx context.Context, order *domain.Order) {
	p.publish(ctx, "order.placed", order)
}

func (p *Publisher) OrderPaid(ctx context.Context, order *domain.Order) {
	p.publish(ctx, "order.paid", order)
}

func (p *Publisher) publish(ctx context.Context, eventType string, order *domain.Order) {
	if p == nil || p.producer == nil || order == nil {
		return
	}
	event := orderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status.String(),
		TotalCost:  order.TotalCost(),
		OccurredAt: time.Now().UTC(),
	}
	for _, line := range order.Lines {
		event.Lines = append(event.Lines, orderEventLine{
			ProductID: line.ProductID,
			Count:     line.Count,
			Price:     line.CurrentPrice,
		})
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.LogAttrs(ctx, slog.LevelError, "failed to encode order event",
				slog.String("type", eventType), slog.Int64("order.id", order.ID), slog.String("error", err.Error()))
		}
		return
	}
	p.producer.Publish(ctx, []byte(strconv.FormatInt(order.ID, 10)), payload)
}
