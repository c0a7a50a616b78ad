package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meganoshop/backend/internal/domains/orders/domain"
	"github.com/meganoshop/backend/internal/domains/orders/ports"
	"github.com/meganoshop/backend/internal/platform/cache"
)

// Service orchestrates checkout: order creation from cart lines and the
// confirmation step of the status machine. Payment settlement lives in the
// payment processor, which drives Repository.Settle.
type Service struct {
	repo   ports.Repository
	carts  ports.CartClearer
	users  ports.UserDirectory
	events ports.EventPublisher
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

func WithEvents(events ports.EventPublisher) Option {
	return func(s *Service) { s.events = events }
}

func NewService(repo ports.Repository, carts ports.CartClearer, users ports.UserDirectory, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		carts:  carts,
		users:  users,
		events: ports.NoopEvents{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create snapshots the cart into purchased lines, clamping each requested
// count to the stock seen at creation time, and clears the cart only after
// every line is durably written. The clamp is a silent correction for the
// client but is logged and reported in the result.
func (s *Service) Create(ctx context.Context, userID int64, lines []ports.CreateLine) (ports.CreateResult, error) {
	if len(lines) == 0 {
		return ports.CreateResult{}, domain.ErrEmptyOrder
	}
	purchased := make([]domain.PurchasedLine, 0, len(lines))
	clamped := false
	for _, line := range lines {
		count := line.Count
		if count > line.ProductCount {
			clamped = true
			count = line.ProductCount
			s.logger.Warn("requested count exceeds stock, clamped",
				slog.Int64("product.id", line.ProductID),
				slog.Int("requested", line.Count),
				slog.Int("stock", line.ProductCount))
		}
		if count <= 0 {
			s.logger.Warn("product out of stock, line dropped from order", slog.Int64("product.id", line.ProductID))
			continue
		}
		purchased = append(purchased, domain.PurchasedLine{
			ProductID:    line.ProductID,
			Count:        count,
			CurrentPrice: line.CurrentPrice,
			ProductCount: line.ProductCount,
		})
	}
	order, err := domain.NewOrder(userID, purchased)
	if err != nil {
		return ports.CreateResult{}, mapError(err)
	}
	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return ports.CreateResult{}, err
	}
	// Cart is cleared strictly after the lines are durable; a failed create
	// must leave the cart intact.
	if err := s.carts.ClearUser(ctx, userID); err != nil {
		s.logger.Error("order created but cart clear failed",
			slog.Int64("order.id", created.ID), slog.String("error", err.Error()))
	}
	s.invalidateOrders(ctx, userID)
	s.events.OrderPlaced(ctx, created)
	s.logger.Info("order created",
		slog.Int64("order.id", created.ID), slog.Int64("user.id", userID), slog.Int("lines", len(created.Lines)))
	return ports.CreateResult{OrderID: created.ID, Clamped: clamped}, nil
}

// Confirm re-validates and stamps the checkout form onto the order,
// freezing the current delivery condition. The order stays in Placed.
func (s *Service) Confirm(ctx context.Context, orderID int64, data ports.Confirmation) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	required := []struct {
		field string
		value string
	}{
		{"fullName", data.FullName},
		{"email", data.Email},
		{"phone", data.Phone},
		{"city", data.City},
		{"address", data.Address},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return requiredField(field.field)
		}
	}
	ownerID, err := s.users.UserIDByEmail(ctx, data.Email)
	if err != nil {
		return err
	}
	switch {
	case ownerID != 0 && ownerID != order.UserID:
		// Never reassign an order across accounts because of an email typo.
		return &ValidationError{Field: "email", Message: "email belongs to a different account"}
	case ownerID == 0:
		if err := s.users.SetEmail(ctx, order.UserID, data.Email); err != nil {
			return err
		}
	}

	order.FullName = data.FullName
	order.Email = data.Email
	order.Phone = data.Phone
	order.City = data.City
	order.Address = data.Address

	condition, err := s.repo.DeliveryCondition(ctx)
	if err != nil {
		return err
	}
	delivery := domain.DeliveryStandard
	if data.DeliveryType == "express" {
		delivery = domain.DeliveryExpress
	}
	order.ApplySnapshot(condition, delivery)
	order.Payment = domain.PaymentOnlineCard
	if data.PaymentType != "" && data.PaymentType != "online" {
		order.Payment = domain.PaymentOnlineAccount
	}
	if err := order.Transition(domain.StatusPlaced); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, order); err != nil {
		return err
	}
	s.invalidateOrders(ctx, order.UserID)
	s.logger.Info("order confirmed",
		slog.Int64("order.id", order.ID),
		slog.String("delivery", data.DeliveryType),
		slog.Float64("total", order.TotalCost()))
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.logger.Error("order not found", slog.Int64("order.id", id))
		}
		return nil, err
	}
	return order, nil
}

// ListByUser returns the caller's orders, read through the orders cache.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return cache.GetOrSet(ctx, s.cache, cache.OrdersKey(userID), func(ctx context.Context) ([]*domain.Order, error) {
		return s.repo.ListByUser(ctx, userID)
	})
}

// DeliveryCondition exposes the live condition for basket payload assembly.
func (s *Service) DeliveryCondition(ctx context.Context) (*domain.DeliveryCondition, error) {
	return s.repo.DeliveryCondition(ctx)
}

func (s *Service) invalidateOrders(ctx context.Context, userID int64) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cache.OrdersKey(userID))
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyOrder) || errors.Is(err, domain.ErrInvalidOrderCount) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

var _ ports.Service = (*Service)(nil)
