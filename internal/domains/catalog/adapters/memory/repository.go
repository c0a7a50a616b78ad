package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/meganoshop/backend/internal/domains/catalog/domain"
	"github.com/meganoshop/backend/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory catalog adapter.
type Repository struct {
	mu           sync.RWMutex
	products     map[int64]*domain.Product
	reviews      map[int64][]*domain.Review
	nextID       int64
	nextReviewID int64
}

func NewRepository() *Repository {
	return &Repository{
		products: map[int64]*domain.Product{},
		reviews:  map[int64][]*domain.Review{},
	}
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (r *Repository) GetByIDs(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[int64]*domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := r.products[id]; ok {
			clone := *product
			result[id] = &clone
		}
	}
	return result, nil
}

func (r *Repository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	clone := *product
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	r.products[clone.ID] = &clone
	stored := clone
	return &stored, nil
}

func (r *Repository) ReviewsByProduct(_ context.Context, productID int64) ([]*domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []*domain.Review
	for _, review := range r.reviews[productID] {
		if review.Deleted {
			continue
		}
		clone := *review
		active = append(active, &clone)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	return active, nil
}

func (r *Repository) CreateReview(_ context.Context, review *domain.Review) (*domain.Review, error) {
	if review == nil {
		return nil, errors.New("review is nil")
	}
	clone := *review
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[clone.ProductID]; !ok {
		return nil, ports.ErrNotFound
	}
	r.nextReviewID++
	clone.ID = r.nextReviewID
	r.reviews[clone.ProductID] = append(r.reviews[clone.ProductID], &clone)
	stored := clone
	return &stored, nil
}

func (r *Repository) AverageRating(_ context.Context, productID int64) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum, n int
	for _, review := range r.reviews[productID] {
		if review.Deleted {
			continue
		}
		sum += review.Rate
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

// AdjustStock applies a settlement delta to a product's counters. Used by
// the in-memory orders adapter inside its settlement critical section.
func (r *Repository) AdjustStock(productID int64, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productID]
	if !ok {
		return ports.ErrNotFound
	}
	product.Count -= delta
	product.SoldGoods += delta
	return nil
}
