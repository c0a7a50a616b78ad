package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(
		&productRecord{},
		&saleRecord{},
		&reviewRecord{},
		&lineRecord{},
		&guestCartRecord{},
		&orderRecord{},
		&purchasedRecord{},
		&conditionRecord{},
		&userRecord{},
		&sessionRecord{},
	); err != nil {
		return err
	}
	return seedDeliveryCondition(db)
}

// seedDeliveryCondition inserts the default delivery pricing when the table
// is empty, so checkout works on a fresh database.
func seedDeliveryCondition(db *gorm.DB) error {
	var count int64
	if err := db.Model(&conditionRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(&conditionRecord{
		Name:       "Standard delivery",
		Cost:       200,
		Threshold:  2000,
		ExpressFee: 500,
	}).Error
}

// Product schema mirrors the catalog Postgres adapter.
type productRecord struct {
	ID               int64          `gorm:"primaryKey;column:id"`
	CategoryID       int64          `gorm:"column:category_id;index"`
	Title            string         `gorm:"column:title;size:250"`
	ShortDescription string         `gorm:"column:short_description;size:500"`
	Description      string         `gorm:"column:description"`
	Price            float64        `gorm:"column:price"`
	Count            int            `gorm:"column:count"`
	SoldGoods        int            `gorm:"column:sold_goods"`
	Tags             pq.StringArray `gorm:"column:tags;type:text[]"`
	ImagePaths       pq.StringArray `gorm:"column:image_paths;type:text[]"`
	ImageAlts        pq.StringArray `gorm:"column:image_alts;type:text[]"`
	LimitedSeries    bool           `gorm:"column:limited_series"`
	Deleted          bool           `gorm:"column:deleted;index"`
	CreatedAt        time.Time      `gorm:"column:created_at;index"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type saleRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	ProductID int64     `gorm:"column:product_id;uniqueIndex"`
	SalePrice float64   `gorm:"column:sale_price"`
	DateFrom  time.Time `gorm:"column:date_from"`
	DateTo    time.Time `gorm:"column:date_to;index"`
	Deleted   bool      `gorm:"column:deleted"`
}

func (saleRecord) TableName() string { return "sales_items" }

type reviewRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	ProductID int64     `gorm:"column:product_id;index"`
	UserID    int64     `gorm:"column:user_id"`
	Author    string    `gorm:"column:author;size:150"`
	Email     string    `gorm:"column:email"`
	Text      string    `gorm:"column:text;size:2000"`
	Rate      int       `gorm:"column:rate"`
	Deleted   bool      `gorm:"column:deleted;index"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (reviewRecord) TableName() string { return "reviews" }

// Basket schema mirrors the basket Postgres adapter.
type lineRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	UserID    int64     `gorm:"column:user_id;uniqueIndex:idx_basket_user_product"`
	ProductID int64     `gorm:"column:product_id;uniqueIndex:idx_basket_user_product"`
	Count     int       `gorm:"column:count"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (lineRecord) TableName() string { return "basket" }

type guestCartRecord struct {
	SessionKey string         `gorm:"primaryKey;column:session_key;size:512"`
	Items      map[string]int `gorm:"column:items;serializer:json"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;index"`
}

func (guestCartRecord) TableName() string { return "guest_baskets" }

// Order schema mirrors the orders Postgres adapter.
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

// User schema mirrors the users Postgres adapter.
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

// Session schema mirrors the session store.
type sessionRecord struct {
	Token     string     `gorm:"primaryKey;column:token;size:512"`
	UserID    int64      `gorm:"column:user_id;index"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "user_sessions" }
