package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	usersdomain "github.com/meganoshop/backend/internal/domains/users/domain"
	usersports "github.com/meganoshop/backend/internal/domains/users/ports"
)

const tracerName = "github.com/meganoshop/backend/internal/domains/users/adapters/observability/service"

// Service decorates the user service with tracing, logging, and metrics.
// Usernames are recorded; passwords and tokens never are.
type Service struct {
	inner   usersports.Service
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

// New wraps the core user service.
func New(inner usersports.Service, opts ...Option) usersports.Service {
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

func (s *Service) Register(ctx context.Context, token, username, password string) (*usersdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register", trace.WithAttributes(attribute.String("user.name", username)))
	defer span.End()

	s.logInfo(ctx, "registering user", slog.String("user.name", username))
	user, err := s.inner.Register(ctx, token, username, password)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register user", slog.String("user.name", username))
	}
	s.metrics.recordSignIn(ctx, "register")
	s.logInfo(ctx, "user registered", slog.Int64("user.id", user.ID))
	return user, nil
}

func (s *Service) Login(ctx context.Context, token, username, password string) (*usersdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Login", trace.WithAttributes(attribute.String("user.name", username)))
	defer span.End()

	user, err := s.inner.Login(ctx, token, username, password)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to log in user", slog.String("user.name", username))
	}
	s.metrics.recordSignIn(ctx, "login")
	s.logInfo(ctx, "user logged in", slog.Int64("user.id", user.ID))
	return user, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Logout")
	defer span.End()

	if err := s.inner.Logout(ctx, token); err != nil {
		return s.handleError(ctx, span, err, "failed to log out user")
	}
	s.logInfo(ctx, "user logged out")
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*usersdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load user", slog.Int64("user.id", id))
	}
	return user, nil
}

func (s *Service) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.UserIDByEmail")
	defer span.End()

	id, err := s.inner.UserIDByEmail(ctx, email)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to look up user by email")
	}
	span.SetAttributes(attribute.Bool("user.found", id != 0))
	return id, nil
}

func (s *Service) SetEmail(ctx context.Context, userID int64, email string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.SetEmail", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	if err := s.inner.SetEmail(ctx, userID, email); err != nil {
		return s.handleError(ctx, span, err, "failed to set user email", slog.Int64("user.id", userID))
	}
	s.logInfo(ctx, "user email updated", slog.Int64("user.id", userID))
	return nil
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
	signIns metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	signIns, _ := m.Int64Counter("users.service.sign_ins", metric.WithDescription("Number of successful sign-ins"))
	return serviceMetrics{signIns: signIns}
}

func (m serviceMetrics) recordSignIn(ctx context.Context, kind string) {
	if m.signIns != nil {
		m.signIns.Add(ctx, 1, metric.WithAttributes(attribute.String("sign_in.kind", kind)))
	}
}

var _ usersports.Service = (*Service)(nil)
