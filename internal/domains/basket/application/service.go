package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/meganoshop/backend/internal/domains/basket/domain"
	"github.com/meganoshop/backend/internal/domains/basket/ports"
	catalogports "github.com/meganoshop/backend/internal/domains/catalog/ports"
	"github.com/meganoshop/backend/internal/platform/cache"
)

var errGuestOwner = errors.New("persisted cart requires an authenticated owner")

// Service is the persisted cart variant: lines live in the basket table,
// reads go through the per-owner cache.
type Service struct {
	repo      ports.Repository
	cache     cache.Cache
	assembler *itemAssembler
	logger    *slog.Logger
}

type Option func(*options)

type options struct {
	cache  cache.Cache
	logger *slog.Logger
}

func WithCache(c cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func NewService(repo ports.Repository, catalog catalogports.Service, opts ...Option) *Service {
	o := applyOptions(opts)
	return &Service{
		repo:      repo,
		cache:     o.cache,
		assembler: newItemAssembler(catalog, o.logger),
		logger:    o.logger,
	}
}

// Items returns the user's cart, read through the basket cache.
func (s *Service) Items(ctx context.Context, owner domain.Owner) ([]domain.Item, error) {
	if owner.IsGuest() {
		return nil, errGuestOwner
	}
	return cache.GetOrSet(ctx, s.cache, cache.BasketKey(owner.Key()), func(ctx context.Context) ([]domain.Item, error) {
		lines, err := s.repo.LinesByUser(ctx, owner.UserID)
		if err != nil {
			return nil, err
		}
		return s.assembler.assemble(ctx, lines)
	})
}

// Add increments an existing line or creates a new one, then invalidates
// the owner's cached cart.
func (s *Service) Add(ctx context.Context, owner domain.Owner, productID int64, count int) ([]domain.Item, error) {
	if owner.IsGuest() {
		return nil, errGuestOwner
	}
	line := domain.Line{UserID: owner.UserID, ProductID: productID, Count: count}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.Line(ctx, owner.UserID, productID)
	switch {
	case err == nil:
		existing.Count += count
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.Info("cart line count increased",
			slog.Int64("user.id", owner.UserID), slog.Int64("product.id", productID), slog.Int("count", existing.Count))
	case errors.Is(err, ports.ErrNotFound):
		if err := s.repo.Save(ctx, &line); err != nil {
			return nil, err
		}
		s.logger.Info("cart line created",
			slog.Int64("user.id", owner.UserID), slog.Int64("product.id", productID), slog.Int("count", count))
	default:
		return nil, err
	}
	s.invalidate(ctx, owner)
	return s.Items(ctx, owner)
}

// Remove decrements a line and deletes it when the count reaches zero.
// A missing line is a not-found error for the persisted variant.
func (s *Service) Remove(ctx context.Context, owner domain.Owner, productID int64, count int) ([]domain.Item, error) {
	if owner.IsGuest() {
		return nil, errGuestOwner
	}
	if count <= 0 {
		return nil, domain.ErrInvalidCount
	}
	line, err := s.repo.Line(ctx, owner.UserID, productID)
	if err != nil {
		return nil, err
	}
	line.Count -= count
	if line.Count > 0 {
		if err := s.repo.Save(ctx, line); err != nil {
			return nil, err
		}
		s.logger.Info("cart line count decreased",
			slog.Int64("user.id", owner.UserID), slog.Int64("product.id", productID), slog.Int("count", line.Count))
	} else {
		if err := s.repo.Delete(ctx, owner.UserID, productID); err != nil {
			return nil, err
		}
		s.logger.Warn("cart line count dropped to zero, line removed",
			slog.Int64("user.id", owner.UserID), slog.Int64("product.id", productID))
	}
	s.invalidate(ctx, owner)
	return s.Items(ctx, owner)
}

// Clear removes every line for the owner. Used at checkout.
func (s *Service) Clear(ctx context.Context, owner domain.Owner) error {
	if owner.IsGuest() {
		return errGuestOwner
	}
	if err := s.repo.ClearUser(ctx, owner.UserID); err != nil {
		return err
	}
	s.invalidate(ctx, owner)
	s.logger.Info("cart cleared", slog.Int64("user.id", owner.UserID))
	return nil
}

// ClearUser adapts Clear to the shape the orders service consumes at
// checkout time.
func (s *Service) ClearUser(ctx context.Context, userID int64) error {
	return s.Clear(ctx, domain.UserOwner(userID))
}

func (s *Service) invalidate(ctx context.Context, owner domain.Owner) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cache.BasketKey(owner.Key()))
	}
}

var _ ports.Cart = (*Service)(nil)
