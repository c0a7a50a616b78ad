package shopserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/meganoshop/backend/internal/domains/catalog/domain"
	catalogports "github.com/meganoshop/backend/internal/domains/catalog/ports"
)

// CatalogAPI exposes the product read side the basket payload needs:
// product detail plus its reviews.
type CatalogAPI struct {
	catalog catalogports.Service
}

// NewCatalogAPI wires dependencies.
func NewCatalogAPI(catalog catalogports.Service) CatalogAPI {
	return CatalogAPI{catalog: catalog}
}

type imageResponse struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type productResponse struct {
	ID            int64           `json:"id"`
	Category      int64           `json:"category"`
	Price         float64         `json:"price"`
	CurrentPrice  float64         `json:"currentPrice"`
	Count         int             `json:"count"`
	Date          time.Time       `json:"date"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	FullDescription string        `json:"fullDescription"`
	Tags          []string        `json:"tags"`
	Images        []imageResponse `json:"images"`
	LimitedSeries bool            `json:"limitedSeries"`
	Rating        float64         `json:"rating"`
}

type reviewRequest struct {
	Author string `json:"author"`
	Email  string `json:"email"`
	Text   string `json:"text"`
	Rate   int    `json:"rate"`
}

type reviewResponse struct {
	Author string    `json:"author"`
	Email  string    `json:"email"`
	Text   string    `json:"text"`
	Rate   int       `json:"rate"`
	Date   time.Time `json:"date"`
}

// Get /api/product/:id
func (api *CatalogAPI) GetProduct(c *gin.Context) {
	productID, err := productIDParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	product, err := api.catalog.Product(ctx, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	rating, err := api.catalog.AverageRating(ctx, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	images := make([]imageResponse, 0, len(product.Images))
	for _, image := range product.Images {
		images = append(images, imageResponse{Src: image.Src, Alt: image.Alt})
	}
	c.JSON(http.StatusOK, productResponse{
		ID:              product.ID,
		Category:        product.CategoryID,
		Price:           product.Price,
		CurrentPrice:    product.CurrentPrice(time.Now()),
		Count:           product.Count,
		Date:            product.CreatedAt,
		Title:           product.Title,
		Description:     product.ShortDescription,
		FullDescription: product.Description,
		Tags:            product.Tags,
		Images:          images,
		LimitedSeries:   product.LimitedSeries,
		Rating:          rating,
	})
}

// Get /api/product/:id/reviews
func (api *CatalogAPI) ListReviews(c *gin.Context) {
	productID, err := productIDParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	reviews, err := api.catalog.Reviews(c.Request.Context(), productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponses(reviews))
}

// Post /api/product/:id/reviews
func (api *CatalogAPI) AddReview(c *gin.Context) {
	identity, ok := requireUser(c)
	if !ok {
		return
	}
	productID, err := productIDParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	var payload reviewRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	_, err = api.catalog.AddReview(ctx, &catalogdomain.Review{
		ProductID: productID,
		UserID:    identity.UserID,
		Author:    payload.Author,
		Email:     payload.Email,
		Text:      payload.Text,
		Rate:      payload.Rate,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	reviews, err := api.catalog.Reviews(ctx, productID)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewResponses(reviews))
}

func toReviewResponses(reviews []*catalogdomain.Review) []reviewResponse {
	response := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		response = append(response, reviewResponse{
			Author: review.Author,
			Email:  review.Email,
			Text:   review.Text,
			Rate:   review.Rate,
			Date:   review.CreatedAt,
		})
	}
	return response
}

func productIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("product id must be a positive integer")
	}
	return id, nil
}

func respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalogports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, catalogdomain.ErrInvalidRate):
		respondFieldErrors(c, map[string]string{"rate": "rate must be between 1 and 5"})
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
