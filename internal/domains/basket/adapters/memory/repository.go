package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/meganoshop/backend/internal/domains/basket/domain"
	"github.com/meganoshop/backend/internal/domains/basket/ports"
)

var (
	_ ports.Repository     = (*Repository)(nil)
	_ ports.GuestCartStore = (*GuestCartStore)(nil)
)

type lineKey struct {
	userID    int64
	productID int64
}

// Repository is an in-memory persisted-cart adapter.
type Repository struct {
	mu     sync.RWMutex
	lines  map[lineKey]*domain.Line
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{lines: map[lineKey]*domain.Line{}}
}

func (r *Repository) LinesByUser(_ context.Context, userID int64) ([]domain.Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var lines []domain.Line
	for key, line := range r.lines {
		if key.userID == userID {
			lines = append(lines, *line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (r *Repository) Line(_ context.Context, userID, productID int64) (*domain.Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	line, ok := r.lines[lineKey{userID, productID}]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *line
	return &clone, nil
}

func (r *Repository) Save(_ context.Context, line *domain.Line) error {
	if line == nil {
		return errors.New("line is nil")
	}
	if err := line.Validate(); err != nil {
		return err
	}
	clone := *line
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	}
	r.lines[lineKey{clone.UserID, clone.ProductID}] = &clone
	line.ID = clone.ID
	return nil
}

func (r *Repository) Delete(_ context.Context, userID, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := lineKey{userID, productID}
	if _, ok := r.lines[key]; !ok {
		return ports.ErrNotFound
	}
	delete(r.lines, key)
	return nil
}

func (r *Repository) ClearUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.lines {
		if key.userID == userID {
			delete(r.lines, key)
		}
	}
	return nil
}

// GuestCartStore keeps guest carts in process memory, keyed by session.
type GuestCartStore struct {
	mu    sync.RWMutex
	carts map[string]domain.GuestCart
}

func NewGuestCartStore() *GuestCartStore {
	return &GuestCartStore{carts: map[string]domain.GuestCart{}}
}

func (s *GuestCartStore) Get(_ context.Context, sessionKey string) (domain.GuestCart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[sessionKey]
	if !ok {
		return nil, nil
	}
	clone := make(domain.GuestCart, len(cart))
	for key, count := range cart {
		clone[key] = count
	}
	return clone, nil
}

func (s *GuestCartStore) Save(_ context.Context, sessionKey string, cart domain.GuestCart) error {
	clone := make(domain.GuestCart, len(cart))
	for key, count := range cart {
		clone[key] = count
	}
	s.mu.Lock()
	s.carts[sessionKey] = clone
	s.mu.Unlock()
	return nil
}

func (s *GuestCartStore) Delete(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	delete(s.carts, sessionKey)
	s.mu.Unlock()
	return nil
}
