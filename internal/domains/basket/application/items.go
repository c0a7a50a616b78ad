package application

import (
	"context"
	"log/slog"
	"sort"
	"time"

	basketdomain "github.com/meganoshop/backend/internal/domains/basket/domain"
	catalogports "github.com/meganoshop/backend/internal/domains/catalog/ports"
)

// itemAssembler enriches raw cart lines with catalog data for the basket
// payload. Products that have vanished from the catalog are dropped with a
// warning rather than failing the whole cart.
type itemAssembler struct {
	catalog catalogports.Service
	logger  *slog.Logger
	now     func() time.Time
}

func newItemAssembler(catalog catalogports.Service, logger *slog.Logger) *itemAssembler {
	return &itemAssembler{catalog: catalog, logger: logger, now: time.Now}
}

func (a *itemAssembler) assemble(ctx context.Context, lines []basketdomain.Line) ([]basketdomain.Item, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := a.catalog.Products(ctx, ids)
	if err != nil {
		return nil, err
	}
	at := a.now()
	items := make([]basketdomain.Item, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			a.logger.Warn("cart line references missing product", slog.Int64("product.id", line.ProductID))
			continue
		}
		reviews, err := a.catalog.Reviews(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		rating, err := a.catalog.AverageRating(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		images := make([]basketdomain.Image, 0, len(product.Images))
		for _, image := range product.Images {
			images = append(images, basketdomain.Image{Src: image.Src, Alt: image.Alt})
		}
		items = append(items, basketdomain.Item{
			ProductID:    product.ID,
			CategoryID:   product.CategoryID,
			Count:        line.Count,
			CurrentPrice: product.CurrentPrice(at),
			ProductCount: product.Count,
			Title:        product.Title,
			Description:  product.ShortDescription,
			Date:         product.CreatedAt,
			Tags:         product.Tags,
			Images:       images,
			Reviews:      len(reviews),
			Rating:       rating,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}
