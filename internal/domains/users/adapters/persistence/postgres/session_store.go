package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	userports "github.com/meganoshop/backend/internal/domains/users/ports"
)

var _ userports.SessionStore = (*SessionStore)(nil)

// DefaultSessionTTL provides the fallback TTL when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore persists session-token bindings in PostgreSQL.
type SessionStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSessionStore wires a PostgreSQL-backed session store. Caller owns DB lifecycle.
func NewSessionStore(db *gorm.DB, sessionTTL time.Duration) *SessionStore {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &SessionStore{db: db, ttl: sessionTTL}
}

type sessionRecord struct {
	Token     string     `gorm:"primaryKey;column:token;size:512"`
	UserID    int64      `gorm:"column:user_id;index"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "user_sessions" }

// Bind upserts the token-to-user binding and refreshes its expiry.
func (s *SessionStore) Bind(ctx context.Context, token string, userID int64) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	expiry := time.Now().Add(s.ttl)
	record := sessionRecord{Token: token, UserID: userID, ExpiresAt: &expiry}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "expires_at", "updated_at"}),
		}).
		Create(&record).Error
}

// Resolve returns the bound user, or (0, nil) for unknown or expired tokens.
func (s *SessionStore) Resolve(ctx context.Context, token string) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	var record sessionRecord
	err := s.db.WithContext(ctx).
		Where("token = ? AND (expires_at IS NULL OR expires_at > ?)", token, time.Now()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.UserID, nil
}

// Unbind removes the binding for one token.
func (s *SessionStore) Unbind(ctx context.Context, token string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "token = ?", token).Error
}

// PurgeExpired removes all expired bindings. Use for housekeeping or cron.
func (s *SessionStore) PurgeExpired(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).
		Delete(&sessionRecord{}).Error
}

func (s *SessionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}
