package ports

import (
	"context"
	"errors"

	"github.com/meganoshop/backend/internal/domains/basket/domain"
)

var ErrNotFound = errors.New("cart line not found")

// Repository persists cart lines for authenticated users.
type Repository interface {
	LinesByUser(ctx context.Context, userID int64) ([]domain.Line, error)
	Line(ctx context.Context, userID, productID int64) (*domain.Line, error)
	Save(ctx context.Context, line *domain.Line) error
	Delete(ctx context.Context, userID, productID int64) error
	ClearUser(ctx context.Context, userID int64) error
}

// GuestCartStore holds the session-embedded carts of anonymous visitors.
// Get returns a nil cart when the session has none yet.
type GuestCartStore interface {
	Get(ctx context.Context, sessionKey string) (domain.GuestCart, error)
	Save(ctx context.Context, sessionKey string, cart domain.GuestCart) error
	Delete(ctx context.Context, sessionKey string) error
}

// Cart is the single contract both cart variants expose. The caller picks
// the variant based on the owner's authentication state.
type Cart interface {
	Items(ctx context.Context, owner domain.Owner) ([]domain.Item, error)
	Add(ctx context.Context, owner domain.Owner, productID int64, count int) ([]domain.Item, error)
	Remove(ctx context.Context, owner domain.Owner, productID int64, count int) ([]domain.Item, error)
	Clear(ctx context.Context, owner domain.Owner) error
}

// Merger folds a guest session cart into a user's persisted cart. Invoked
// once, synchronously, at login or registration.
type Merger interface {
	Merge(ctx context.Context, sessionKey string, userID int64) error
}
