package shopserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	basketdomain "github.com/meganoshop/backend/internal/domains/basket/domain"
	basketports "github.com/meganoshop/backend/internal/domains/basket/ports"
	ordersdomain "github.com/meganoshop/backend/internal/domains/orders/domain"
)

// DeliveryConditionSource reads the live delivery pricing the basket
// payload embeds. Implemented by the orders service.
type DeliveryConditionSource interface {
	DeliveryCondition(ctx context.Context) (*ordersdomain.DeliveryCondition, error)
}

// BasketAPI serves the cart endpoints. It holds both cart variants and
// picks one per request from the resolved identity.
type BasketAPI struct {
	userCart  basketports.Cart
	guestCart basketports.Cart
	delivery  DeliveryConditionSource
}

// NewBasketAPI wires dependencies.
func NewBasketAPI(userCart, guestCart basketports.Cart, delivery DeliveryConditionSource) BasketAPI {
	return BasketAPI{userCart: userCart, guestCart: guestCart, delivery: delivery}
}

type basketLineRequest struct {
	ID    int64 `json:"id"`
	Count int   `json:"count"`
}

type deliveryConditionResponse struct {
	Name       string  `json:"name"`
	Cost       float64 `json:"cost"`
	Threshold  float64 `json:"threshold"`
	ExpressFee float64 `json:"expressFee"`
}

type basketResponse struct {
	Items             []basketdomain.Item        `json:"items"`
	DeliveryCondition *deliveryConditionResponse `json:"deliveryCondition,omitempty"`
}

func (api *BasketAPI) cartFor(identity Identity) (basketports.Cart, basketdomain.Owner) {
	if identity.SignedIn() {
		return api.userCart, identity.Owner()
	}
	return api.guestCart, identity.Owner()
}

// Get /api/basket
func (api *BasketAPI) GetBasket(c *gin.Context) {
	identity := identityFrom(c)
	cart, owner := api.cartFor(identity)
	items, err := cart.Items(c.Request.Context(), owner)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, api.payload(c, items))
}

// Post /api/basket
func (api *BasketAPI) AddToBasket(c *gin.Context) {
	var payload basketLineRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	identity := identityFrom(c)
	cart, owner := api.cartFor(identity)
	items, err := cart.Add(c.Request.Context(), owner, payload.ID, payload.Count)
	if err != nil {
		respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.payload(c, items))
}

// Delete /api/basket
func (api *BasketAPI) RemoveFromBasket(c *gin.Context) {
	var payload basketLineRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	identity := identityFrom(c)
	cart, owner := api.cartFor(identity)
	items, err := cart.Remove(c.Request.Context(), owner, payload.ID, payload.Count)
	if err != nil {
		respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.payload(c, items))
}

func (api *BasketAPI) payload(c *gin.Context, items []basketdomain.Item) basketResponse {
	if items == nil {
		items = []basketdomain.Item{}
	}
	response := basketResponse{Items: items}
	if api.delivery != nil {
		if condition, err := api.delivery.DeliveryCondition(c.Request.Context()); err == nil && condition != nil {
			response.DeliveryCondition = &deliveryConditionResponse{
				Name:       condition.Name,
				Cost:       condition.Cost,
				Threshold:  condition.Threshold,
				ExpressFee: condition.ExpressFee,
			}
		}
	}
	return response
}

func respondCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, basketports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case errors.Is(err, basketdomain.ErrInvalidProductID), errors.Is(err, basketdomain.ErrInvalidCount):
		respondError(c, http.StatusBadRequest, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
