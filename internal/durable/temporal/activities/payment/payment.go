package payment

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	paymentports "github.com/meganoshop/backend/internal/domains/payment/ports"
)

// Activities groups activities that operate on the payment bounded context.
type Activities struct {
	service paymentports.Service
}

// NewActivities wires the payment processor into the Temporal activities bundle.
func NewActivities(service paymentports.Service) *Activities {
	return &Activities{service: service}
}

// Process settles one order through the payment processor.
func (a *Activities) Process(ctx context.Context, orderID int64) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("payment activity not initialized", "orderId", orderID)
		return errors.New("payment activity not initialized")
	}
	logger.Info("Process activity started", "orderId", orderID)
	if err := a.service.Process(ctx, orderID); err != nil {
		logger.Error("Process activity failed", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("Process activity completed", "orderId", orderID)
	return nil
}

// MarkFailed pushes one order to the failed state after the grace delay.
func (a *Activities) MarkFailed(ctx context.Context, orderID int64) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("payment activity not initialized", "orderId", orderID)
		return errors.New("payment activity not initialized")
	}
	logger.Info("MarkFailed activity started", "orderId", orderID)
	if err := a.service.MarkFailed(ctx, orderID); err != nil {
		logger.Error("MarkFailed activity failed", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("MarkFailed activity completed", "orderId", orderID)
	return nil
}
