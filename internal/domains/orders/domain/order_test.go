package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	order, err := NewOrder(7, []PurchasedLine{{ProductID: 1, Count: 2, CurrentPrice: 100}})
	require.NoError(t, err)
	assert.Equal(t, StatusPlaced, order.Status)
	assert.Equal(t, int64(7), order.UserID)

	_, err = NewOrder(7, nil)
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = NewOrder(7, []PurchasedLine{{ProductID: 1, Count: 0}})
	require.ErrorIs(t, err, ErrInvalidOrderCount)
}

func TestTransition_ForwardOnly(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		ok   bool
	}{
		{"drafting to placed", StatusDrafting, StatusPlaced, true},
		{"placed reconfirmed", StatusPlaced, StatusPlaced, true},
		{"placed to unpaid", StatusPlaced, StatusUnpaid, true},
		{"placed to confirming", StatusPlaced, StatusConfirmingPayment, true},
		{"placed to failed", StatusPlaced, StatusPaymentFailed, true},
		{"unpaid to confirming", StatusUnpaid, StatusConfirmingPayment, true},
		{"confirming to paid", StatusConfirmingPayment, StatusPaid, true},
		{"confirming to failed", StatusConfirmingPayment, StatusPaymentFailed, true},
		{"paid to shipping", StatusPaid, StatusShipping, true},
		{"paid back to placed", StatusPaid, StatusPlaced, false},
		{"confirming reentered", StatusConfirmingPayment, StatusConfirmingPayment, false},
		{"shipping is terminal", StatusShipping, StatusPaid, false},
		{"failed is terminal", StatusPaymentFailed, StatusPlaced, false},
		{"drafting skips to paid", StatusDrafting, StatusPaid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Status: tt.from}
			err := order.Transition(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, order.Status)
			} else {
				require.ErrorIs(t, err, ErrStatusTransition)
				assert.Equal(t, tt.from, order.Status)
			}
		})
	}
}

func TestTransition_InvalidStatus(t *testing.T) {
	order := &Order{Status: StatusPlaced}
	require.ErrorIs(t, order.Transition(Status(42)), ErrInvalidStatus)
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusShipping.Terminal())
	assert.True(t, StatusPaymentFailed.Terminal())
	assert.False(t, StatusPaid.Terminal())
}

func TestApplySnapshot(t *testing.T) {
	condition := &DeliveryCondition{Name: "Standard delivery", Cost: 200, Threshold: 2000, ExpressFee: 500}

	standard := &Order{}
	standard.ApplySnapshot(condition, DeliveryStandard)
	assert.Equal(t, DeliveryStandard, standard.Delivery)
	assert.Equal(t, 200.0, standard.Snapshot.Cost)
	assert.Equal(t, 2000.0, standard.Snapshot.Threshold)
	assert.Equal(t, 0.0, standard.Snapshot.ExpressFee)

	express := &Order{}
	express.ApplySnapshot(condition, DeliveryExpress)
	assert.Equal(t, DeliveryExpress, express.Delivery)
	assert.Equal(t, 500.0, express.Snapshot.ExpressFee)
	assert.Equal(t, 0.0, express.Snapshot.Cost)
}

func TestTotalCost(t *testing.T) {
	lines := func(total float64) []PurchasedLine {
		return []PurchasedLine{{ProductID: 1, Count: 1, CurrentPrice: total}}
	}
	tests := []struct {
		name     string
		order    Order
		expected float64
	}{
		{
			"express fee always added",
			Order{Lines: lines(5000), Snapshot: DeliverySnapshot{ExpressFee: 500, Threshold: 2000}},
			5500,
		},
		{
			"below threshold pays delivery",
			Order{Lines: lines(1500), Snapshot: DeliverySnapshot{Cost: 200, Threshold: 2000}},
			1700,
		},
		{
			"at threshold ships free",
			Order{Lines: lines(2000), Snapshot: DeliverySnapshot{Cost: 200, Threshold: 2000}},
			2000,
		},
		{
			"express wins over threshold",
			Order{Lines: lines(100), Snapshot: DeliverySnapshot{Cost: 200, Threshold: 2000, ExpressFee: 500}},
			600,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.order.TotalCost())
		})
	}
}

func TestGoodsCost(t *testing.T) {
	order := Order{Lines: []PurchasedLine{
		{Count: 2, CurrentPrice: 100},
		{Count: 1, CurrentPrice: 50.5},
	}}
	assert.Equal(t, 250.5, order.GoodsCost())
}
