package ports

import (
	"context"
	"errors"

	"github.com/meganoshop/backend/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// Repository persists orders with their purchased lines.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error

	// SetStatus moves the order status without a lock. Best-effort path,
	// used only to push an order to a terminal failure state.
	SetStatus(ctx context.Context, id int64, status domain.Status) error

	// Settle runs the payment settlement in one transaction while holding
	// an exclusive lock on the order row: status goes to ConfirmingPayment,
	// charge is invoked, and on success every purchased line's count is
	// deducted from product stock and added to its sold counter before the
	// order is marked Paid. Any error rolls the whole transaction back.
	Settle(ctx context.Context, orderID int64, charge func(ctx context.Context, order *domain.Order) error) error

	// DeliveryCondition returns the live delivery configuration.
	DeliveryCondition(ctx context.Context) (*domain.DeliveryCondition, error)
}

// CartClearer empties a user's cart after the order lines are durably
// written. Implemented by the basket service.
type CartClearer interface {
	ClearUser(ctx context.Context, userID int64) error
}

// UserDirectory resolves emails during confirmation and adopts an email
// onto the order owner when it is not taken.
type UserDirectory interface {
	// UserIDByEmail returns (0, nil) when no account holds the email.
	UserIDByEmail(ctx context.Context, email string) (int64, error)
	SetEmail(ctx context.Context, userID int64, email string) error
}

// EventPublisher emits order lifecycle events. Implementations must be
// safe to call with a nil receiver absent via the Noop publisher.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, order *domain.Order)
	OrderPaid(ctx context.Context, order *domain.Order)
}

// NoopEvents drops order events; used when no broker is configured.
type NoopEvents struct{}

func (NoopEvents) OrderPlaced(context.Context, *domain.Order) {}
func (NoopEvents) OrderPaid(context.Context, *domain.Order)   {}

var _ EventPublisher = NoopEvents{}

// CreateLine is the checkout input for one cart line, carrying the values
// the basket read path already computed.
type CreateLine struct {
	ProductID    int64
	Count        int
	CurrentPrice float64
	ProductCount int
}

// CreateResult reports the new order and whether any requested quantity
// was clamped to available stock.
type CreateResult struct {
	OrderID int64
	Clamped bool
}

// Confirmation carries the checkout form fields.
type Confirmation struct {
	FullName     string
	Email        string
	Phone        string
	City         string
	Address      string
	DeliveryType string
	PaymentType  string
}

// Service exposes order use cases to transport adapters.
type Service interface {
	Create(ctx context.Context, userID int64, lines []CreateLine) (CreateResult, error)
	Confirm(ctx context.Context, orderID int64, data Confirmation) error
	Get(ctx context.Context, id int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
}
