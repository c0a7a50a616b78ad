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

var errUserOwner = errors.New("guest cart requires a session owner")

// GuestService is the session-backed cart variant for anonymous visitors.
// Same contract as the persisted variant, different storage.
type GuestService struct {
	store     ports.GuestCartStore
	cache     cache.Cache
	assembler *itemAssembler
	logger    *slog.Logger
}

func NewGuestService(store ports.GuestCartStore, catalog catalogports.Service, opts ...Option) *GuestService {
	o := applyOptions(opts)
	return &GuestService{
		store:     store,
		cache:     o.cache,
		assembler: newItemAssembler(catalog, o.logger),
		logger:    o.logger,
	}
}

// EnsureInitialized lazily creates the empty cart mapping in the session.
// Idempotent: an existing cart is left untouched.
func (s *GuestService) EnsureInitialized(ctx context.Context, sessionKey string) error {
	cart, err := s.store.Get(ctx, sessionKey)
	if err != nil {
		return err
	}
	if cart != nil {
		return nil
	}
	s.logger.Info("guest cart created", slog.String("session", sessionKey))
	return s.store.Save(ctx, sessionKey, domain.GuestCart{})
}

func (s *GuestService) Items(ctx context.Context, owner domain.Owner) ([]domain.Item, error) {
	if !owner.IsGuest() {
		return nil, errUserOwner
	}
	return cache.GetOrSet(ctx, s.cache, cache.BasketKey(owner.Key()), func(ctx context.Context) ([]domain.Item, error) {
		cart, err := s.store.Get(ctx, owner.SessionKey)
		if err != nil {
			return nil, err
		}
		if len(cart) == 0 {
			return []domain.Item{}, nil
		}
		lines, err := cart.Entries()
		if err != nil {
			return nil, err
		}
		return s.assembler.assemble(ctx, lines)
	})
}

func (s *GuestService) Add(ctx context.Context, owner domain.Owner, productID int64, count int) ([]domain.Item, error) {
	if !owner.IsGuest() {
		return nil, errUserOwner
	}
	if productID <= 0 {
		return nil, domain.ErrInvalidProductID
	}
	if count <= 0 {
		return nil, domain.ErrInvalidCount
	}
	if err := s.EnsureInitialized(ctx, owner.SessionKey); err != nil {
		return nil, err
	}
	cart, err := s.store.Get(ctx, owner.SessionKey)
	if err != nil {
		return nil, err
	}
	cart.Add(productID, count)
	if err := s.store.Save(ctx, owner.SessionKey, cart); err != nil {
		return nil, err
	}
	s.logger.Info("guest cart line added",
		slog.String("session", owner.SessionKey), slog.Int64("product.id", productID), slog.Int("count", count))
	s.invalidate(ctx, owner)
	return s.Items(ctx, owner)
}

// Remove decrements a guest line, dropping it at zero. A missing line is a
// warning-level no-op: the session may simply never have held the product.
func (s *GuestService) Remove(ctx context.Context, owner domain.Owner, productID int64, count int) ([]domain.Item, error) {
	if !owner.IsGuest() {
		return nil, errUserOwner
	}
	if count <= 0 {
		return nil, domain.ErrInvalidCount
	}
	cart, err := s.store.Get(ctx, owner.SessionKey)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = domain.GuestCart{}
	}
	if !cart.Remove(productID, count) {
		s.logger.Warn("guest cart has no line for product, nothing removed",
			slog.String("session", owner.SessionKey), slog.Int64("product.id", productID))
		return s.Items(ctx, owner)
	}
	if err := s.store.Save(ctx, owner.SessionKey, cart); err != nil {
		return nil, err
	}
	s.invalidate(ctx, owner)
	return s.Items(ctx, owner)
}

func (s *GuestService) Clear(ctx context.Context, owner domain.Owner) error {
	if !owner.IsGuest() {
		return errUserOwner
	}
	if err := s.store.Delete(ctx, owner.SessionKey); err != nil {
		return err
	}
	s.invalidate(ctx, owner)
	return nil
}

func (s *GuestService) invalidate(ctx context.Context, owner domain.Owner) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cache.BasketKey(owner.Key()))
	}
}

var _ ports.Cart = (*GuestService)(nil)
