package application

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/meganoshop/backend/internal/domains/catalog/domain"
	"github.com/meganoshop/backend/internal/domains/catalog/ports"
	"github.com/meganoshop/backend/internal/platform/cache"
)

// Service exposes the catalog read side plus review writes.
type Service struct {
	repo   ports.Repository
	cache  cache.Cache
	logger *slog.Logger
}

type Option func(*Service)

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) Product(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.logger.Error("product not found", slog.Int64("product.id", id))
		}
		return nil, err
	}
	return product, nil
}

func (s *Service) Products(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// Reviews lists active comments, read through the comments cache.
func (s *Service) Reviews(ctx context.Context, productID int64) ([]*domain.Review, error) {
	return cache.GetOrSet(ctx, s.cache, cache.CommentsKey(productID), func(ctx context.Context) ([]*domain.Review, error) {
		return s.repo.ReviewsByProduct(ctx, productID)
	})
}

// AddReview stores a comment and drops the rating and comment caches for
// the product.
func (s *Service) AddReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	if review == nil {
		return nil, errors.New("review is nil")
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, review.ProductID); err != nil {
		return nil, err
	}
	saved, err := s.repo.CreateReview(ctx, review)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cache.RatingKey(review.ProductID))
		_ = s.cache.Delete(ctx, cache.CommentsKey(review.ProductID))
	}
	s.logger.Info("review created", slog.Int64("product.id", review.ProductID))
	return saved, nil
}

// AverageRating returns the mean review rate rounded to one decimal,
// 0 when the product has no reviews yet.
func (s *Service) AverageRating(ctx context.Context, productID int64) (float64, error) {
	avg, err := cache.GetOrSet(ctx, s.cache, cache.RatingKey(productID), func(ctx context.Context) (float64, error) {
		return s.repo.AverageRating(ctx, productID)
	})
	if err != nil {
		return 0, err
	}
	return math.Round(avg*10) / 10, nil
}

var _ ports.Service = (*Service)(nil)
