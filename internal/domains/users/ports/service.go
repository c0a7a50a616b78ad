package ports

import (
	"context"

	"github.com/meganoshop/backend/internal/domains/users/domain"
)

// CartMerger folds a guest cart into a user's basket. Implemented by the
// basket context; declared here so sign-in does not import it directly.
type CartMerger interface {
	Merge(ctx context.Context, sessionKey string, userID int64) error
}

// Service exposes user bounded context use cases to adapters. Register and
// Login take the caller's session token: on success the token is bound to
// the account and any guest cart held under it is merged in.
type Service interface {
	Register(ctx context.Context, token, username, password string) (*domain.User, error)
	Login(ctx context.Context, token, username, password string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// UserIDByEmail returns (0, nil) when no account carries the email.
	UserIDByEmail(ctx context.Context, email string) (int64, error)
	SetEmail(ctx context.Context, userID int64, email string) error
}
