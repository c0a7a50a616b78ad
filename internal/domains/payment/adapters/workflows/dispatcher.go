package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/meganoshop/backend/internal/domains/payment/ports"
	paymentworkflows "github.com/meganoshop/backend/internal/durable/temporal/workflows/payment"
)

var (
	_ ports.Dispatcher = (*TemporalDispatcher)(nil)
	_ ports.Dispatcher = (*InlineDispatcher)(nil)
)

// TemporalDispatcher starts payment workflows on a Temporal cluster. The
// workflow ID embeds the order ID, so a double-submitted payment joins the
// running settlement instead of starting a second one.
type TemporalDispatcher struct {
	client    client.Client
	taskQueue string
}

// NewTemporalDispatcher wires a Temporal client into the dispatcher.
func NewTemporalDispatcher(c client.Client) *TemporalDispatcher {
	return &TemporalDispatcher{client: c, taskQueue: paymentworkflows.PaymentTaskQueue}
}

func (d *TemporalDispatcher) DispatchPayment(ctx context.Context, orderID int64) error {
	return d.start(ctx, fmt.Sprintf("payment-order-%d", orderID), paymentworkflows.PaymentWorkflowName, orderID)
}

func (d *TemporalDispatcher) DispatchFailure(ctx context.Context, orderID int64) error {
	return d.start(ctx, fmt.Sprintf("payment-failure-%d", orderID), paymentworkflows.PaymentFailureWorkflowName, orderID)
}

func (d *TemporalDispatcher) start(ctx context.Context, workflowID, workflowName string, orderID int64) error {
	if d == nil || d.client == nil {
		return errors.New("temporal payment dispatcher not configured")
	}
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: d.taskQueue,
	}
	input := paymentworkflows.PaymentWorkflowInput{OrderID: orderID, TraceID: workflowTraceID(ctx)}
	_, err := d.client.ExecuteWorkflow(ctx, options, workflowName, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return err
	}
	return nil
}

// InlineDispatcher runs payment work on a goroutine without durable
// orchestration, useful for tests or dev fallbacks. Work outlives the
// request context but is bounded by a timeout.
type InlineDispatcher struct {
	service ports.Service
	logger  *slog.Logger
	timeout time.Duration
}

// NewInlineDispatcher wraps the payment processor for in-process execution.
func NewInlineDispatcher(service ports.Service, logger *slog.Logger) *InlineDispatcher {
	return &InlineDispatcher{service: service, logger: logger, timeout: 5 * time.Minute}
}

func (d *InlineDispatcher) DispatchPayment(ctx context.Context, orderID int64) error {
	if d == nil || d.service == nil {
		return errors.New("inline payment dispatcher not configured")
	}
	d.run(ctx, orderID, "payment", d.service.Process)
	return nil
}

func (d *InlineDispatcher) DispatchFailure(ctx context.Context, orderID int64) error {
	if d == nil || d.service == nil {
		return errors.New("inline payment dispatcher not configured")
	}
	d.run(ctx, orderID, "payment failure", d.service.MarkFailed)
	return nil
}

func (d *InlineDispatcher) run(ctx context.Context, orderID int64, kind string, fn func(context.Context, int64) error) {
	detached := context.WithoutCancel(ctx)
	go func() {
		runCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		if err := fn(runCtx, orderID); err != nil && d.logger != nil {
			d.logger.LogAttrs(runCtx, slog.LevelError, "inline dispatch failed",
				slog.String("kind", kind), slog.Int64("order.id", orderID), slog.String("error", err.Error()))
		}
	}()
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() || !spanCtx.TraceID().IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
