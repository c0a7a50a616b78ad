package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/meganoshop/backend/internal/domains/users/domain"
	"github.com/meganoshop/backend/internal/domains/users/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists users in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type userRecord struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Username     string    `gorm:"column:username;uniqueIndex"`
	FullName     string    `gorm:"column:full_name"`
	Email        string    `gorm:"column:email;index"`
	Phone        string    `gorm:"column:phone"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

func (r *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user is nil")
	}
	record := toRecord(user)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ports.ErrUsernameTaken
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) Update(ctx context.Context, user *domain.User) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}
	result := r.db.WithContext(ctx).
		Model(&userRecord{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"full_name":     user.FullName,
			"email":         user.Email,
			"phone":         user.Phone,
			"password_hash": user.PasswordHash,
			"updated_at":    gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, "email = ?", strings.TrimSpace(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres user repository not configured")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func toRecord(user *domain.User) userRecord {
	return userRecord{
		ID:           user.ID,
		Username:     user.Username,
		FullName:     user.FullName,
		Email:        user.Email,
		Phone:        user.Phone,
		PasswordHash: user.PasswordHash,
	}
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		FullName:     r.FullName,
		Email:        r.Email,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
	}
}
