package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidPrice = errors.New("product price must not be negative")
	ErrEmptyTitle   = errors.New("product title is required")
	ErrInvalidRate  = errors.New("review rate must be between 1 and 5")
)

// Image points at a stored product picture.
type Image struct {
	Src string
	Alt string
}

// Sale is a discount window attached to a product. Outside the
// [DateFrom, DateTo] window the regular price applies.
type Sale struct {
	SalePrice float64
	DateFrom  time.Time
	DateTo    time.Time
	Deleted   bool
}

// Active reports whether the sale price applies at the given instant.
func (s *Sale) Active(at time.Time) bool {
	if s == nil || s.Deleted {
		return false
	}
	return !at.Before(s.DateFrom) && !at.After(s.DateTo)
}

// Discount is the percentage knocked off the regular price.
func (s *Sale) Discount(regular float64) int {
	if s == nil || regular <= 0 {
		return 0
	}
	return 100 - int((s.SalePrice/regular)*100)
}

// Product models a catalog item. The basket/order core reads price and
// availability; Count and SoldGoods are mutated only by payment settlement.
type Product struct {
	ID               int64
	CategoryID       int64
	Title            string
	ShortDescription string
	Description      string
	Price            float64
	Count            int
	SoldGoods        int
	Tags             []string
	Images           []Image
	LimitedSeries    bool
	Deleted          bool
	CreatedAt        time.Time
	Sale             *Sale
}

// Validate enforces invariants on the aggregate.
func (p *Product) Validate() error {
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// CurrentPrice returns the effective price at the given instant, honoring
// an active sale window.
func (p *Product) CurrentPrice(at time.Time) float64 {
	if p.Sale.Active(at) {
		return p.Sale.SalePrice
	}
	return p.Price
}

// Available reports whether any stock remains.
func (p *Product) Available() bool {
	return p.Count > 0 && !p.Deleted
}

// Review is a customer comment with a 1..5 rating. Soft-deleted reviews
// are excluded from listings and rating averages.
type Review struct {
	ID        int64
	ProductID int64
	UserID    int64
	Author    string
	Email     string
	Text      string
	Rate      int
	Deleted   bool
	CreatedAt time.Time
}

func (r *Review) Validate() error {
	if r.Rate < 1 || r.Rate > 5 {
		return ErrInvalidRate
	}
	return nil
}
