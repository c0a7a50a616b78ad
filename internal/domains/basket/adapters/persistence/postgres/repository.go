package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meganoshop/backend/internal/domains/basket/domain"
	"github.com/meganoshop/backend/internal/domains/basket/ports"
)

var (
	_ ports.Repository     = (*Repository)(nil)
	_ ports.GuestCartStore = (*GuestCartStore)(nil)
)

// Repository persists cart lines in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed cart repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type lineRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	UserID    int64     `gorm:"column:user_id;uniqueIndex:idx_basket_user_product"`
	ProductID int64     `gorm:"column:product_id;uniqueIndex:idx_basket_user_product"`
	Count     int       `gorm:"column:count"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (lineRecord) TableName() string { return "basket" }

func (r *Repository) LinesByUser(ctx context.Context, userID int64) ([]domain.Line, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []lineRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("product_id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	lines := make([]domain.Line, 0, len(records))
	for _, record := range records {
		lines = append(lines, record.toDomain())
	}
	return lines, nil
}

func (r *Repository) Line(ctx context.Context, userID, productID int64) (*domain.Line, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record lineRecord
	if err := r.db.WithContext(ctx).
		First(&record, "user_id = ? AND product_id = ?", userID, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	line := record.toDomain()
	return &line, nil
}

// Save upserts the (user, product) line, keeping the pair unique.
func (r *Repository) Save(ctx context.Context, line *domain.Line) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if line == nil {
		return errors.New("line is nil")
	}
	if err := line.Validate(); err != nil {
		return err
	}
	record := lineRecord{ID: line.ID, UserID: line.UserID, ProductID: line.ProductID, Count: line.Count}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count":      record.Count,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return err
	}
	line.ID = record.ID
	return nil
}

func (r *Repository) Delete(ctx context.Context, userID, productID int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&lineRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ClearUser(ctx context.Context, userID int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&lineRecord{}).Error
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres basket repository not configured")
	}
	return nil
}

func (r lineRecord) toDomain() domain.Line {
	return domain.Line{ID: r.ID, UserID: r.UserID, ProductID: r.ProductID, Count: r.Count}
}

// GuestCartStore persists guest carts keyed by session token. The cart
// mapping is stored as a JSON document, mirroring its session-payload shape.
type GuestCartStore struct {
	db *gorm.DB
}

func NewGuestCartStore(db *gorm.DB) *GuestCartStore {
	return &GuestCartStore{db: db}
}

type guestCartRecord struct {
	SessionKey string         `gorm:"primaryKey;column:session_key;size:512"`
	Items      map[string]int `gorm:"column:items;serializer:json"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;index"`
}

func (guestCartRecord) TableName() string { return "guest_baskets" }

func (s *GuestCartStore) Get(ctx context.Context, sessionKey string) (domain.GuestCart, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record guestCartRecord
	if err := s.db.WithContext(ctx).First(&record, "session_key = ?", sessionKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	cart := domain.GuestCart{}
	for key, count := range record.Items {
		cart[key] = count
	}
	return cart, nil
}

func (s *GuestCartStore) Save(ctx context.Context, sessionKey string, cart domain.GuestCart) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := guestCartRecord{SessionKey: sessionKey, Items: cart}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).Create(&record).Error
}

func (s *GuestCartStore) Delete(ctx context.Context, sessionKey string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&guestCartRecord{}, "session_key = ?", sessionKey).Error
}

func (s *GuestCartStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres guest cart store not configured")
	}
	return nil
}
