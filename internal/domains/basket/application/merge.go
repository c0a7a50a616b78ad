package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/meganoshop/backend/internal/domains/basket/domain"
	"github.com/meganoshop/backend/internal/domains/basket/ports"
	"github.com/meganoshop/backend/internal/platform/cache"
)

// CartMerger folds a guest session cart into a user's persisted cart when
// the visitor logs in or registers. Line-by-line, not atomic: a crash mid
// merge leaves independent lines behind, which is an accepted risk.
type CartMerger struct {
	repo   ports.Repository
	guests ports.GuestCartStore
	cache  cache.Cache
	logger *slog.Logger
}

func NewCartMerger(repo ports.Repository, guests ports.GuestCartStore, opts ...Option) *CartMerger {
	o := applyOptions(opts)
	return &CartMerger{repo: repo, guests: guests, cache: o.cache, logger: o.logger}
}

// Merge sums guest counts into existing lines, creates lines for new
// products, then drops the guest cart and the user's cached basket.
// A missing or empty guest cart is a logged no-op.
func (m *CartMerger) Merge(ctx context.Context, sessionKey string, userID int64) error {
	cart, err := m.guests.Get(ctx, sessionKey)
	if err != nil {
		return err
	}
	if len(cart) == 0 {
		m.logger.Warn("no guest cart lines to merge", slog.String("session", sessionKey), slog.Int64("user.id", userID))
		return nil
	}
	entries, err := cart.Entries()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		line, err := m.repo.Line(ctx, userID, entry.ProductID)
		switch {
		case err == nil:
			line.Count += entry.Count
			if err := m.repo.Save(ctx, line); err != nil {
				return err
			}
		case errors.Is(err, ports.ErrNotFound):
			created := domain.Line{UserID: userID, ProductID: entry.ProductID, Count: entry.Count}
			if err := m.repo.Save(ctx, &created); err != nil {
				return err
			}
		default:
			return err
		}
	}
	if err := m.guests.Delete(ctx, sessionKey); err != nil {
		return err
	}
	if m.cache != nil {
		_ = m.cache.Delete(ctx, cache.BasketKey(domain.UserOwner(userID).Key()))
		_ = m.cache.Delete(ctx, cache.BasketKey(sessionKey))
	}
	m.logger.Info("guest cart merged",
		slog.String("session", sessionKey), slog.Int64("user.id", userID), slog.Int("lines", len(entries)))
	return nil
}

var _ ports.Merger = (*CartMerger)(nil)
