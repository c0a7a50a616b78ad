package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meganoshop/backend/internal/domains/catalog/domain"
	"github.com/meganoshop/backend/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists the catalog in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

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

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	product := record.toDomain()
	product.Sale = r.loadSale(ctx, id)
	return product, nil
}

func (r *Repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	result := make(map[int64]*domain.Product, len(records))
	for i := range records {
		product := records[i].toDomain()
		product.Sale = r.loadSale(ctx, product.ID)
		result[product.ID] = product
	}
	return result, nil
}

func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	record := toProductRecord(product)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"category_id":       record.CategoryID,
				"title":             record.Title,
				"short_description": record.ShortDescription,
				"description":       record.Description,
				"price":             record.Price,
				"count":             record.Count,
				"sold_goods":        record.SoldGoods,
				"tags":              record.Tags,
				"image_paths":       record.ImagePaths,
				"image_alts":        record.ImageAlts,
				"limited_series":    record.LimitedSeries,
				"deleted":           record.Deleted,
				"updated_at":        gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	if product.Sale != nil {
		sale := saleRecord{
			ProductID: record.ID,
			SalePrice: product.Sale.SalePrice,
			DateFrom:  product.Sale.DateFrom,
			DateTo:    product.Sale.DateTo,
			Deleted:   product.Sale.Deleted,
		}
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"sale_price", "date_from", "date_to", "deleted"}),
			}).Create(&sale).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) ReviewsByProduct(ctx context.Context, productID int64) ([]*domain.Review, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []reviewRecord
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND deleted = false", productID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	reviews := make([]*domain.Review, 0, len(records))
	for i := range records {
		reviews = append(reviews, records[i].toDomain())
	}
	return reviews, nil
}

func (r *Repository) CreateReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if review == nil {
		return nil, errors.New("review is nil")
	}
	record := reviewRecord{
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Author:    review.Author,
		Email:     review.Email,
		Text:      review.Text,
		Rate:      review.Rate,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) AverageRating(ctx context.Context, productID int64) (float64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var avg *float64
	if err := r.db.WithContext(ctx).
		Model(&reviewRecord{}).
		Where("product_id = ? AND deleted = false", productID).
		Select("AVG(rate)").
		Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (r *Repository) loadSale(ctx context.Context, productID int64) *domain.Sale {
	var record saleRecord
	err := r.db.WithContext(ctx).First(&record, "product_id = ?", productID).Error
	if err != nil {
		return nil
	}
	return &domain.Sale{
		SalePrice: record.SalePrice,
		DateFrom:  record.DateFrom,
		DateTo:    record.DateTo,
		Deleted:   record.Deleted,
	}
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres catalog repository not configured")
	}
	return nil
}

func toProductRecord(product *domain.Product) productRecord {
	paths := make(pq.StringArray, 0, len(product.Images))
	alts := make(pq.StringArray, 0, len(product.Images))
	for _, image := range product.Images {
		paths = append(paths, image.Src)
		alts = append(alts, image.Alt)
	}
	return productRecord{
		ID:               product.ID,
		CategoryID:       product.CategoryID,
		Title:            product.Title,
		ShortDescription: product.ShortDescription,
		Description:      product.Description,
		Price:            product.Price,
		Count:            product.Count,
		SoldGoods:        product.SoldGoods,
		Tags:             pq.StringArray(product.Tags),
		ImagePaths:       paths,
		ImageAlts:        alts,
		LimitedSeries:    product.LimitedSeries,
		Deleted:          product.Deleted,
	}
}

func (r productRecord) toDomain() *domain.Product {
	images := make([]domain.Image, 0, len(r.ImagePaths))
	for i, path := range r.ImagePaths {
		alt := ""
		if i < len(r.ImageAlts) {
			alt = r.ImageAlts[i]
		}
		images = append(images, domain.Image{Src: path, Alt: alt})
	}
	return &domain.Product{
		ID:               r.ID,
		CategoryID:       r.CategoryID,
		Title:            r.Title,
		ShortDescription: r.ShortDescription,
		Description:      r.Description,
		Price:            r.Price,
		Count:            r.Count,
		SoldGoods:        r.SoldGoods,
		Tags:             []string(r.Tags),
		Images:           images,
		LimitedSeries:    r.LimitedSeries,
		Deleted:          r.Deleted,
		CreatedAt:        r.CreatedAt,
	}
}

func (r reviewRecord) toDomain() *domain.Review {
	return &domain.Review{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Author:    r.Author,
		Email:     r.Email,
		Text:      r.Text,
		Rate:      r.Rate,
		Deleted:   r.Deleted,
		CreatedAt: r.CreatedAt,
	}
}
