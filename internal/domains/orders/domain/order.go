package domain

import (
	"errors"
	"fmt"
	"time"
)

// Status enumerates order progression. Codes are stable and stored as-is;
// an order only ever moves forward through the graph below.
type Status int

const (
	StatusDrafting          Status = 1
	StatusPlaced            Status = 2
	StatusUnpaid            Status = 3
	StatusConfirmingPayment Status = 4
	StatusPaid              Status = 5
	StatusShipping          Status = 6
	StatusPaymentFailed     Status = 7
)

var statusLabels = map[Status]string{
	StatusDrafting:          "drafting",
	StatusPlaced:            "placed",
	StatusUnpaid:            "unpaid",
	StatusConfirmingPayment: "confirming payment",
	StatusPaid:              "paid",
	StatusShipping:          "shipping",
	StatusPaymentFailed:     "payment failed",
}

func (s Status) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusShipping || s == StatusPaymentFailed
}

// transitions is the forward-only graph. Placed → Placed covers
// re-confirmation of the checkout form. PaymentFailed is reachable from any
// pre-payment state through the best-effort failure path.
var transitions = map[Status][]Status{
	StatusDrafting:          {StatusPlaced},
	StatusPlaced:            {StatusPlaced, StatusUnpaid, StatusConfirmingPayment, StatusPaymentFailed},
	StatusUnpaid:            {StatusConfirmingPayment, StatusPaymentFailed},
	StatusConfirmingPayment: {StatusPaid, StatusPaymentFailed},
	StatusPaid:              {StatusShipping},
}

// DeliveryType selects the shipping tier at confirmation time.
type DeliveryType int

const (
	DeliveryStandard DeliveryType = 1
	DeliveryExpress  DeliveryType = 2
)

// PaymentType selects how the order is paid.
type PaymentType int

const (
	PaymentOnlineCard    PaymentType = 1
	PaymentOnlineAccount PaymentType = 2
)

var (
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrStatusTransition  = errors.New("order status may only move forward")
	ErrEmptyOrder        = errors.New("order has no purchased lines")
	ErrInvalidOrderCount = errors.New("purchased count must be greater than zero")
)

// DeliveryCondition is the live delivery configuration. Its values are
// copied onto the order at confirmation so later edits never change
// historical orders.
type DeliveryCondition struct {
	ID          int64
	Name        string
	Description string
	Cost        float64
	Threshold   float64
	ExpressFee  float64
}

// DeliverySnapshot holds the condition values frozen on an order.
type DeliverySnapshot struct {
	Name       string
	Cost       float64
	Threshold  float64
	ExpressFee float64
}

// PurchasedLine is an immutable snapshot of one product at order-creation
// time: the clamped count, the price in effect, and the stock level seen.
type PurchasedLine struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	Count        int
	CurrentPrice float64
	ProductCount int
}

func (l *PurchasedLine) Validate() error {
	if l.Count <= 0 {
		return ErrInvalidOrderCount
	}
	return nil
}

// Order is the checkout aggregate: a snapshot of cart lines plus the
// confirmation/payment state machine. TotalCost is always derived, never
// stored.
type Order struct {
	ID        int64
	UserID    int64
	FullName  string
	Email     string
	Phone     string
	City      string
	Address   string
	Status    Status
	Delivery  DeliveryType
	Payment   PaymentType
	Snapshot  DeliverySnapshot
	Lines     []PurchasedLine
	CreatedAt time.Time
}

// NewOrder builds the aggregate directly in Placed, which is how checkout
// creates it.
func NewOrder(userID int64, lines []PurchasedLine) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for i := range lines {
		if err := lines[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &Order{UserID: userID, Status: StatusPlaced, Lines: lines}, nil
}

// Transition moves the order to the requested status, enforcing the
// forward-only graph.
func (o *Order) Transition(to Status) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	for _, allowed := range transitions[o.Status] {
		if allowed == to {
			o.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrStatusTransition, o.Status, to)
}

// ApplySnapshot freezes the current delivery condition onto the order and
// records the chosen delivery tier. Express orders carry the express fee;
// standard orders carry the base cost.
func (o *Order) ApplySnapshot(condition *DeliveryCondition, delivery DeliveryType) {
	o.Delivery = delivery
	o.Snapshot = DeliverySnapshot{Name: condition.Name, Threshold: condition.Threshold}
	if delivery == DeliveryExpress {
		o.Snapshot.ExpressFee = condition.ExpressFee
	} else {
		o.Snapshot.Cost = condition.Cost
	}
}

// GoodsCost is the sum of the snapshotted line prices.
func (o *Order) GoodsCost() float64 {
	var total float64
	for _, line := range o.Lines {
		total += line.CurrentPrice * float64(line.Count)
	}
	return total
}

// TotalCost derives the payable amount: goods plus the delivery fee per the
// frozen snapshot. The express-fee branch wins over the threshold branch
// whenever both could apply; the two are not mutually exclusive in every
// data state and that precedence is deliberate.
func (o *Order) TotalCost() float64 {
	total := o.GoodsCost()
	switch {
	case o.Snapshot.ExpressFee > 0:
		return total + o.Snapshot.ExpressFee
	case total < o.Snapshot.Threshold:
		return total + o.Snapshot.Cost
	default:
		return total
	}
}
