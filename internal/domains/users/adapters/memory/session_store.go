package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meganoshop/backend/internal/domains/users/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

type binding struct {
	userID    int64
	expiresAt time.Time
}

// SessionStore is an in-memory SessionStore implementation.
type SessionStore struct {
	mu       sync.RWMutex
	bindings map[string]binding
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{bindings: map[string]binding{}, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source for expiry tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) Bind(_ context.Context, token string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[token] = binding{userID: userID, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *SessionStore) Resolve(_ context.Context, token string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[token]
	if !ok || s.now().After(b.expiresAt) {
		return 0, nil
	}
	return b.userID, nil
}

func (s *SessionStore) Unbind(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, token)
	return nil
}

func (s *SessionStore) PurgeExpired(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for token, b := range s.bindings {
		if now.After(b.expiresAt) {
			delete(s.bindings, token)
		}
	}
	return nil
}
