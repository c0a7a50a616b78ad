package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meganoshop/backend/internal/domains/orders/domain"
	"github.com/meganoshop/backend/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed order repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type orderRecord struct {
	ID                 int64     `gorm:"primaryKey;column:id"`
	UserID             int64     `gorm:"column:user_id;index"`
	FullName           string    `gorm:"column:full_name;size:150"`
	Email              string    `gorm:"column:email"`
	Phone              string    `gorm:"column:phone;size:32"`
	City               string    `gorm:"column:city;size:150"`
	Address            string    `gorm:"column:address;size:300"`
	Status             int       `gorm:"column:status;index"`
	Delivery           int       `gorm:"column:delivery"`
	Payment            int       `gorm:"column:payment"`
	ConditionName      string    `gorm:"column:delivery_condition_name;size:100"`
	ConditionCost      float64   `gorm:"column:delivery_condition_cost"`
	ConditionThreshold float64   `gorm:"column:delivery_condition_threshold"`
	ConditionExpress   float64   `gorm:"column:delivery_condition_is_express"`
	CreatedAt          time.Time `gorm:"column:created_at;index"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type purchasedRecord struct {
	ID           int64   `gorm:"primaryKey;column:id"`
	OrderID      int64   `gorm:"column:order_id;index"`
	ProductID    int64   `gorm:"column:product_id"`
	Count        int     `gorm:"column:count"`
	CurrentPrice float64 `gorm:"column:current_price"`
	ProductCount int     `gorm:"column:product_count"`
}

func (purchasedRecord) TableName() string { return "purchased_products" }

type conditionRecord struct {
	ID          int64   `gorm:"primaryKey;column:id"`
	Name        string  `gorm:"column:name;size:100"`
	Description string  `gorm:"column:description"`
	Cost        float64 `gorm:"column:cost"`
	Threshold   float64 `gorm:"column:threshold"`
	ExpressFee  float64 `gorm:"column:is_express"`
}

func (conditionRecord) TableName() string { return "delivery_conditions" }

// Create writes the order and its purchased lines in one transaction, so a
// partial failure leaves nothing behind and the caller keeps the cart.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toOrderRecord(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		lines := make([]purchasedRecord, 0, len(order.Lines))
		for _, line := range order.Lines {
			lines = append(lines, purchasedRecord{
				OrderID:      record.ID,
				ProductID:    line.ProductID,
				Count:        line.Count,
				CurrentPrice: line.CurrentPrice,
				ProductCount: line.ProductCount,
			})
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return getOrder(ctx, r.db, id, false)
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		order := records[i].toDomain()
		lines, err := loadLines(ctx, r.db, order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
		orders = append(orders, order)
	}
	return orders, nil
}

// Update persists the order header; purchased lines are immutable after
// creation and are never touched here.
func (r *Repository) Update(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if order == nil {
		return errors.New("order is nil")
	}
	record := toOrderRecord(order)
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"full_name":                    record.FullName,
			"email":                        record.Email,
			"phone":                        record.Phone,
			"city":                         record.City,
			"address":                      record.Address,
			"status":                       record.Status,
			"delivery":                     record.Delivery,
			"payment":                      record.Payment,
			"delivery_condition_name":      record.ConditionName,
			"delivery_condition_cost":      record.ConditionCost,
			"delivery_condition_threshold": record.ConditionThreshold,
			"delivery_condition_is_express": record.ConditionExpress,
			"updated_at":                   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// SetStatus is the lock-free path used only to push an order forward to a
// terminal failure state.
func (r *Repository) SetStatus(ctx context.Context, id int64, status domain.Status) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": int(status), "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Settle holds SELECT ... FOR UPDATE on the order row for the duration of
// the transaction, so concurrent attempts on the same order serialize and
// stock is deducted at most once. Any error rolls everything back.
func (r *Repository) Settle(ctx context.Context, orderID int64, charge func(ctx context.Context, order *domain.Order) error) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := getOrderLocked(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := order.Transition(domain.StatusConfirmingPayment); err != nil {
			return err
		}
		if err := tx.Model(&orderRecord{}).Where("id = ?", orderID).
			Update("status", int(order.Status)).Error; err != nil {
			return err
		}
		if err := charge(ctx, order); err != nil {
			return err
		}
		for _, line := range order.Lines {
			if err := tx.Table("products").Where("id = ?", line.ProductID).
				Updates(map[string]any{
					"count":      gorm.Expr("count - ?", line.Count),
					"sold_goods": gorm.Expr("sold_goods + ?", line.Count),
				}).Error; err != nil {
				return err
			}
		}
		if err := order.Transition(domain.StatusPaid); err != nil {
			return err
		}
		return tx.Model(&orderRecord{}).Where("id = ?", orderID).
			Update("status", int(order.Status)).Error
	})
}

func (r *Repository) DeliveryCondition(ctx context.Context) (*domain.DeliveryCondition, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record conditionRecord
	if err := r.db.WithContext(ctx).Order("id").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("no delivery condition configured")
		}
		return nil, err
	}
	return &domain.DeliveryCondition{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		Cost:        record.Cost,
		Threshold:   record.Threshold,
		ExpressFee:  record.ExpressFee,
	}, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func getOrder(ctx context.Context, db *gorm.DB, id int64, forUpdate bool) (*domain.Order, error) {
	query := db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var record orderRecord
	if err := query.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	order := record.toDomain()
	lines, err := loadLines(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

func getOrderLocked(ctx context.Context, tx *gorm.DB, id int64) (*domain.Order, error) {
	return getOrder(ctx, tx, id, true)
}

func loadLines(ctx context.Context, db *gorm.DB, orderID int64) ([]domain.PurchasedLine, error) {
	var records []purchasedRecord
	if err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	lines := make([]domain.PurchasedLine, 0, len(records))
	for _, record := range records {
		lines = append(lines, domain.PurchasedLine{
			ID:           record.ID,
			OrderID:      record.OrderID,
			ProductID:    record.ProductID,
			Count:        record.Count,
			CurrentPrice: record.CurrentPrice,
			ProductCount: record.ProductCount,
		})
	}
	return lines, nil
}

func toOrderRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:                 order.ID,
		UserID:             order.UserID,
		FullName:           order.FullName,
		Email:              order.Email,
		Phone:              order.Phone,
		City:               order.City,
		Address:            order.Address,
		Status:             int(order.Status),
		Delivery:           int(order.Delivery),
		Payment:            int(order.Payment),
		ConditionName:      order.Snapshot.Name,
		ConditionCost:      order.Snapshot.Cost,
		ConditionThreshold: order.Snapshot.Threshold,
		ConditionExpress:   order.Snapshot.ExpressFee,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:       r.ID,
		UserID:   r.UserID,
		FullName: r.FullName,
		Email:    r.Email,
		Phone:    r.Phone,
		City:     r.City,
		Address:  r.Address,
		Status:   domain.Status(r.Status),
		Delivery: domain.DeliveryType(r.Delivery),
		Payment:  domain.PaymentType(r.Payment),
		Snapshot: domain.DeliverySnapshot{
			Name:       r.ConditionName,
			Cost:       r.ConditionCost,
			Threshold:  r.ConditionThreshold,
			ExpressFee: r.ConditionExpress,
		},
		CreatedAt: r.CreatedAt,
	}
}
