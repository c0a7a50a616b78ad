package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentPrice_SaleWindow(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	product := &Product{
		Title: "Keyboard",
		Price: 1000,
		Sale:  &Sale{SalePrice: 750, DateFrom: from, DateTo: to},
	}

	assert.Equal(t, 1000.0, product.CurrentPrice(from.Add(-time.Hour)))
	assert.Equal(t, 750.0, product.CurrentPrice(from))
	assert.Equal(t, 750.0, product.CurrentPrice(from.AddDate(0, 0, 5)))
	assert.Equal(t, 750.0, product.CurrentPrice(to))
	assert.Equal(t, 1000.0, product.CurrentPrice(to.Add(time.Hour)))
}

func TestCurrentPrice_DeletedSaleIgnored(t *testing.T) {
	now := time.Now()
	product := &Product{
		Title: "Mouse",
		Price: 500,
		Sale: &Sale{
			SalePrice: 100,
			DateFrom:  now.Add(-time.Hour),
			DateTo:    now.Add(time.Hour),
			Deleted:   true,
		},
	}
	assert.Equal(t, 500.0, product.CurrentPrice(now))
}

func TestCurrentPrice_NoSale(t *testing.T) {
	product := &Product{Title: "Cable", Price: 120}
	assert.Equal(t, 120.0, product.CurrentPrice(time.Now()))
}

func TestSale_Discount(t *testing.T) {
	sale := &Sale{SalePrice: 750}
	assert.Equal(t, 25, sale.Discount(1000))
	assert.Equal(t, 0, sale.Discount(0))
}

func TestProduct_Validate(t *testing.T) {
	require.ErrorIs(t, (&Product{Price: 10}).Validate(), ErrEmptyTitle)
	require.ErrorIs(t, (&Product{Title: "x", Price: -1}).Validate(), ErrInvalidPrice)
	require.NoError(t, (&Product{Title: "x", Price: 0}).Validate())
}

func TestProduct_Available(t *testing.T) {
	assert.True(t, (&Product{Count: 1}).Available())
	assert.False(t, (&Product{Count: 0}).Available())
	assert.False(t, (&Product{Count: 3, Deleted: true}).Available())
}

func TestReview_Validate(t *testing.T) {
	for rate := 1; rate <= 5; rate++ {
		require.NoError(t, (&Review{Rate: rate}).Validate())
	}
	require.ErrorIs(t, (&Review{Rate: 0}).Validate(), ErrInvalidRate)
	require.ErrorIs(t, (&Review{Rate: 6}).Validate(), ErrInvalidRate)
}
