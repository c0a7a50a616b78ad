package payment

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// PaymentWorkflowName is the public identifier for registering the settlement workflow.
	PaymentWorkflowName = "payment.workflows.Settle"
	// PaymentFailureWorkflowName registers the delayed failure workflow.
	PaymentFailureWorkflowName = "payment.workflows.MarkFailed"
	// PaymentTaskQueue is the queue consumed by the worker processing payments.
	PaymentTaskQueue = "PAYMENT"

	// ProcessPaymentActivityName settles one order under the repository lock.
	ProcessPaymentActivityName = "payment.activities.Process"
	// MarkFailedActivityName pushes one order to the failed state.
	MarkFailedActivityName = "payment.activities.MarkFailed"
)

// PaymentWorkflowInput identifies the order to settle.
type PaymentWorkflowInput struct {
	OrderID int64
	TraceID string
}

// PaymentWorkflow settles one order. Retries are deliberately disabled for
// the settlement activity: a failed attempt rolled back atomically and the
// buyer retries from checkout, so replaying it durably would double-charge
// nothing but would also never succeed past a domain rejection.
func PaymentWorkflow(ctx workflow.Context, input PaymentWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("PaymentWorkflow started", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	ctx = workflow.WithActivityOptions(ctx, options)
	if err := workflow.ExecuteActivity(ctx, ProcessPaymentActivityName, input.OrderID).Get(ctx, nil); err != nil {
		logger.Error("PaymentWorkflow failed", withTraceID(input.TraceID, "orderId", input.OrderID, "error", err)...)
		return err
	}
	logger.Info("PaymentWorkflow completed", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	return nil
}

// PaymentFailureWorkflow marks one order failed after the activity's grace
// delay. Best effort: a lost worker just leaves the order in its prior state.
func PaymentFailureWorkflow(ctx workflow.Context, input PaymentWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("PaymentFailureWorkflow started", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	ctx = workflow.WithActivityOptions(ctx, options)
	if err := workflow.ExecuteActivity(ctx, MarkFailedActivityName, input.OrderID).Get(ctx, nil); err != nil {
		logger.Error("PaymentFailureWorkflow failed", withTraceID(input.TraceID, "orderId", input.OrderID, "error", err)...)
		return err
	}
	logger.Info("PaymentFailureWorkflow completed", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
