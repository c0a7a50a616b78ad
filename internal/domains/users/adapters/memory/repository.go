package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/meganoshop/backend/internal/domains/users/domain"
	"github.com/meganoshop/backend/internal/domains/users/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory user store for tests and dev fallbacks.
type Repository struct {
	mu     sync.RWMutex
	users  map[int64]*domain.User
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{users: map[int64]*domain.User{}, nextID: 1}
}

func (r *Repository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return nil, ports.ErrUsernameTaken
		}
	}
	clone := *user
	clone.ID = r.nextID
	r.nextID++
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *Repository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return ports.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *Repository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Username, strings.TrimSpace(username)) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.TrimSpace(email)
	for _, user := range r.users {
		if user.Email != "" && strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ports.ErrNotFound
}
