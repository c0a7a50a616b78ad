package ports

import (
	"context"
	"errors"

	"github.com/meganoshop/backend/internal/domains/catalog/domain"
)

var ErrNotFound = errors.New("product not found")

// Repository persists catalog products and their reviews.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)

	ReviewsByProduct(ctx context.Context, productID int64) ([]*domain.Review, error)
	CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error)
	AverageRating(ctx context.Context, productID int64) (float64, error)
}

// Service exposes the catalog read side consumed by basket and orders.
type Service interface {
	Product(ctx context.Context, id int64) (*domain.Product, error)
	Products(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	Reviews(ctx context.Context, productID int64) ([]*domain.Review, error)
	AddReview(ctx context.Context, review *domain.Review) (*domain.Review, error)
	AverageRating(ctx context.Context, productID int64) (float64, error)
}
