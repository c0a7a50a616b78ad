// Package ports declares the payment context's contracts. Payment operates
// on orders through the order repository's settlement primitive and never
// touches product rows directly.
package ports

import (
	"context"

	ordersdomain "github.com/meganoshop/backend/internal/domains/orders/domain"
)

// Gateway charges an order with an external payment provider.
type Gateway interface {
	Charge(ctx context.Context, order *ordersdomain.Order) error
}

// Service executes payment outcomes. Process settles the order under an
// exclusive lock; MarkFailed pushes it to the failed state after a grace
// delay, without locking.
type Service interface {
	Process(ctx context.Context, orderID int64) error
	MarkFailed(ctx context.Context, orderID int64) error
}

// Dispatcher hands payment work off for asynchronous execution. Dispatching
// returns as soon as the work is accepted; the outcome lands on the order
// record, not on the HTTP response.
type Dispatcher interface {
	DispatchPayment(ctx context.Context, orderID int64) error
	DispatchFailure(ctx context.Context, orderID int64) error
}
