package ports

import (
	"context"
	"errors"

	"github.com/meganoshop/backend/internal/domains/users/domain"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type Repository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetByEmail returns ErrNotFound when no account carries the email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
