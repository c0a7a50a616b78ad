package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/meganoshop/backend/internal/domains/users/domain"
	"github.com/meganoshop/backend/internal/domains/users/ports"
)

var _ ports.Service = (*Service)(nil)

// Service exposes user bounded context use cases. Sign-in binds the
// caller's session token to the account and folds any guest cart held
// under that token into the account's basket.
type Service struct {
	repo     ports.Repository
	sessions ports.SessionStore
	merger   ports.CartMerger
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithCartMerger(merger ports.CartMerger) Option {
	return func(s *Service) {
		s.merger = merger
	}
}

func NewService(repo ports.Repository, sessions ports.SessionStore, opts ...Option) *Service {
	if sessions == nil {
		sessions = ports.NoopSessionStore
	}
	s := &Service{repo: repo, sessions: sessions}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) Register(ctx context.Context, token, username, password string) (*domain.User, error) {
	user, err := domain.NewUser(username, password)
	if err != nil {
		return nil, mapError(err)
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, mapError(err)
	}
	s.adoptSession(ctx, token, created.ID)
	return created, nil
}

func (s *Service) Login(ctx context.Context, token, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, mapError(ports.ErrInvalidCredentials)
	}
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, mapError(ports.ErrInvalidCredentials)
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, mapError(ports.ErrInvalidCredentials)
	}
	s.adoptSession(ctx, token, user.ID)
	return user, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.sessions.Unbind(ctx, token)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UserIDByEmail reports which account, if any, carries the email. Unknown
// emails are not an error; checkout uses that to adopt them.
func (s *Service) UserIDByEmail(ctx context.Context, email string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, nil
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return user.ID, nil
}

func (s *Service) SetEmail(ctx context.Context, userID int64, email string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.SetEmail(email); err != nil {
		return mapError(err)
	}
	return s.repo.Update(ctx, user)
}

// adoptSession binds the token to the account and merges any guest cart.
// Neither step may fail the sign-in: a lost binding means the next request
// is treated as a guest, and a failed merge leaves the guest cart for a
// later attempt.
func (s *Service) adoptSession(ctx context.Context, token string, userID int64) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	if err := s.sessions.Bind(ctx, token, userID); err != nil {
		s.logWarn(ctx, "failed to bind session", slog.Int64("user.id", userID), slog.String("error", err.Error()))
		return
	}
	if s.merger == nil {
		return
	}
	if err := s.merger.Merge(ctx, token, userID); err != nil {
		s.logWarn(ctx, "failed to merge guest cart", slog.Int64("user.id", userID), slog.String("error", err.Error()))
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	}
}
