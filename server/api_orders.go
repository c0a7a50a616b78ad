package shopserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	basketports "github.com/meganoshop/backend/internal/domains/basket/ports"
	ordersapp "github.com/meganoshop/backend/internal/domains/orders/application"
	ordersdomain "github.com/meganoshop/backend/internal/domains/orders/domain"
	ordersports "github.com/meganoshop/backend/internal/domains/orders/ports"
)

// OrderAPI serves checkout: order creation from the persisted cart,
// listing, and confirmation.
type OrderAPI struct {
	orders ordersports.Service
	carts  basketports.Cart
}

// NewOrderAPI wires dependencies. carts must be the persisted variant;
// guests cannot place orders.
func NewOrderAPI(orders ordersports.Service, carts basketports.Cart) OrderAPI {
	return OrderAPI{orders: orders, carts: carts}
}

type confirmationRequest struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	Address      string `json:"address"`
	DeliveryType string `json:"deliveryType"`
	PaymentType  string `json:"paymentType"`
}

type purchasedLineResponse struct {
	ProductID    int64   `json:"id"`
	Count        int     `json:"count"`
	CurrentPrice float64 `json:"currentPrice"`
	ProductCount int     `json:"productCount"`
}

type orderResponse struct {
	ID           int64                   `json:"id"`
	CreatedAt    time.Time               `json:"createdAt"`
	FullName     string                  `json:"fullName"`
	Email        string                  `json:"email"`
	Phone        string                  `json:"phone"`
	City         string                  `json:"city"`
	Address      string                  `json:"address"`
	Status       string                  `json:"status"`
	DeliveryType string                  `json:"deliveryType"`
	PaymentType  string                  `json:"paymentType"`
	TotalCost    float64                 `json:"totalCost"`
	Products     []purchasedLineResponse `json:"products"`
}

// Post /api/orders
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	identity, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	items, err := api.carts.Items(ctx, identity.Owner())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	lines := make([]ordersports.CreateLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, ordersports.CreateLine{
			ProductID:    item.ProductID,
			Count:        item.Count,
			CurrentPrice: item.CurrentPrice,
			ProductCount: item.ProductCount,
		})
	}
	result, err := api.orders.Create(ctx, identity.UserID, lines)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": result.OrderID})
}

// Get /api/orders
func (api *OrderAPI) ListOrders(c *gin.Context) {
	identity, ok := requireUser(c)
	if !ok {
		return
	}
	orders, err := api.orders.ListByUser(c.Request.Context(), identity.UserID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, toOrderResponse(order))
	}
	c.JSON(http.StatusOK, response)
}

// Get /api/orders/:id
func (api *OrderAPI) GetOrder(c *gin.Context) {
	identity, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := api.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	if order.UserID != identity.UserID {
		respondError(c, http.StatusNotFound, ordersports.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Post /api/orders/:id
func (api *OrderAPI) ConfirmOrder(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	var payload confirmationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	err = api.orders.Confirm(c.Request.Context(), orderID, ordersports.Confirmation{
		FullName:     payload.FullName,
		Email:        payload.Email,
		Phone:        payload.Phone,
		City:         payload.City,
		Address:      payload.Address,
		DeliveryType: payload.DeliveryType,
		PaymentType:  payload.PaymentType,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": orderID})
}

func orderIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("order id must be a positive integer")
	}
	return id, nil
}

func toOrderResponse(order *ordersdomain.Order) orderResponse {
	products := make([]purchasedLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		products = append(products, purchasedLineResponse{
			ProductID:    line.ProductID,
			Count:        line.Count,
			CurrentPrice: line.CurrentPrice,
			ProductCount: line.ProductCount,
		})
	}
	return orderResponse{
		ID:           order.ID,
		CreatedAt:    order.CreatedAt,
		FullName:     order.FullName,
		Email:        order.Email,
		Phone:        order.Phone,
		City:         order.City,
		Address:      order.Address,
		Status:       order.Status.String(),
		DeliveryType: deliveryLabel(order.Delivery),
		PaymentType:  paymentLabel(order.Payment),
		TotalCost:    order.TotalCost(),
		Products:     products,
	}
}

func deliveryLabel(delivery ordersdomain.DeliveryType) string {
	if delivery == ordersdomain.DeliveryExpress {
		return "express"
	}
	return "standard"
}

func paymentLabel(payment ordersdomain.PaymentType) string {
	if payment == ordersdomain.PaymentOnlineAccount {
		return "account"
	}
	return "online"
}

func respondOrderError(c *gin.Context, err error) {
	var validation *ordersapp.ValidationError
	switch {
	case errors.As(err, &validation):
		respondFieldErrors(c, map[string]string{validation.Field: validation.Message})
	case errors.Is(err, ordersapp.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, ordersports.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}
