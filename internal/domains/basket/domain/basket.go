package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrInvalidProductID = errors.New("product id must be greater than zero")
	ErrInvalidCount     = errors.New("count must be greater than zero")
)

// Owner identifies who a cart belongs to: an authenticated user or an
// anonymous visitor keyed by session.
type Owner struct {
	UserID     int64
	SessionKey string
}

func UserOwner(userID int64) Owner       { return Owner{UserID: userID} }
func GuestOwner(sessionKey string) Owner { return Owner{SessionKey: sessionKey} }

func (o Owner) IsGuest() bool { return o.UserID == 0 }

// Key is the owner component of cache keys for this cart.
func (o Owner) Key() string {
	if o.IsGuest() {
		return o.SessionKey
	}
	return strconv.FormatInt(o.UserID, 10)
}

// Line is one persisted cart record: at most one per (user, product),
// count strictly positive.
type Line struct {
	ID        int64
	UserID    int64
	ProductID int64
	Count     int
}

func (l *Line) Validate() error {
	if l.ProductID <= 0 {
		return ErrInvalidProductID
	}
	if l.Count <= 0 {
		return ErrInvalidCount
	}
	return nil
}

// GuestCart is the session-held cart of an anonymous visitor: product id
// (stringified, as stored in the session payload) to count.
type GuestCart map[string]int

// Add increments the count for a product, creating the entry on first add.
func (c GuestCart) Add(productID int64, count int) {
	c[strconv.FormatInt(productID, 10)] += count
}

// Remove decrements the count for a product and drops the entry when it
// falls to zero or below. It reports whether the entry existed.
func (c GuestCart) Remove(productID int64, count int) bool {
	key := strconv.FormatInt(productID, 10)
	current, ok := c[key]
	if !ok {
		return false
	}
	current -= count
	if current <= 0 {
		delete(c, key)
	} else {
		c[key] = current
	}
	return true
}

// Entries returns the cart contents with parsed product ids. Malformed
// keys are reported rather than skipped silently.
func (c GuestCart) Entries() ([]Line, error) {
	lines := make([]Line, 0, len(c))
	for key, count := range c {
		productID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed product key %q in guest cart: %w", key, err)
		}
		lines = append(lines, Line{ProductID: productID, Count: count})
	}
	return lines, nil
}

// Item is a cart line enriched with the product data the basket payload
// carries. It is what the read-through cache stores.
type Item struct {
	ProductID    int64     `json:"id"`
	CategoryID   int64     `json:"category"`
	Count        int       `json:"count"`
	CurrentPrice float64   `json:"currentPrice"`
	ProductCount int       `json:"productCount"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Date         time.Time `json:"date"`
	Tags         []string  `json:"tags"`
	Images       []Image   `json:"images"`
	Reviews      int       `json:"reviews"`
	Rating       float64   `json:"rating"`
}

// Image mirrors the catalog image reference in the basket payload.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}
