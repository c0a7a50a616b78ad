package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/meganoshop/backend/internal/domains/orders/domain"
	ordersports "github.com/meganoshop/backend/internal/domains/orders/ports"
)

const tracerName = "github.com/meganoshop/backend/internal/domains/orders/adapters/observability/service"

// Service decorates the order service with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Create(ctx context.Context, userID int64, lines []ordersports.CreateLine) (ordersports.CreateResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Create",
		trace.WithAttributes(attribute.Int64("user.id", userID), attribute.Int("order.lines", len(lines))))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.Int64("user.id", userID), slog.Int("lines", len(lines)))
	result, err := s.inner.Create(ctx, userID, lines)
	if err != nil {
		return result, s.handleError(ctx, span, err, "failed to create order", slog.Int64("user.id", userID))
	}
	span.SetAttributes(attribute.Int64("order.id", result.OrderID), attribute.Bool("order.clamped", result.Clamped))
	s.metrics.recordCreated(ctx, result.Clamped)
	s.logInfo(ctx, "order created", slog.Int64("order.id", result.OrderID), slog.Bool("clamped", result.Clamped))
	return result, nil
}

func (s *Service) Confirm(ctx context.Context, orderID int64, data ordersports.Confirmation) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.Confirm",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.String("order.delivery", data.DeliveryType)))
	defer span.End()

	s.logInfo(ctx, "confirming order", slog.Int64("order.id", orderID))
	if err := s.inner.Confirm(ctx, orderID, data); err != nil {
		return s.handleError(ctx, span, err, "failed to confirm order", slog.Int64("order.id", orderID))
	}
	s.metrics.recordConfirmed(ctx, data.PaymentType)
	s.logInfo(ctx, "order confirmed", slog.Int64("order.id", orderID), slog.String("payment", data.PaymentType))
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	result, err := s.inner.Get(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	span.SetAttributes(attribute.String("order.status", result.Status.String()))
	return result, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByUser", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	result, err := s.inner.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.Int64("user.id", userID))
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersCreated   metric.Int64Counter
	ordersConfirmed metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created"))
	ordersConfirmed, _ := m.Int64Counter("orders.service.confirmed", metric.WithDescription("Number of orders confirmed"))
	return serviceMetrics{ordersCreated: ordersCreated, ordersConfirmed: ordersConfirmed}
}

func (m serviceMetrics) recordCreated(ctx context.Context, clamped bool) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("order.clamped", clamped)))
	}
}

func (m serviceMetrics) recordConfirmed(ctx context.Context, payment string) {
	if m.ordersConfirmed != nil {
		m.ordersConfirmed.Add(ctx, 1, metric.WithAttributes(attribute.String("order.payment", payment)))
	}
}

var _ ordersports.Service = (*Service)(nil)
