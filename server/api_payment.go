package shopserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ordersports "github.com/meganoshop/backend/internal/domains/orders/ports"
	paymentapp "github.com/meganoshop/backend/internal/domains/payment/application"
	paymentports "github.com/meganoshop/backend/internal/domains/payment/ports"
)

// PaymentAPI accepts card submissions and hands settlement off to the
// payment dispatcher. The response never carries the payment outcome; the
// buyer polls the order status.
type PaymentAPI struct {
	dispatcher paymentports.Dispatcher
	orders     ordersports.Service
}

// NewPaymentAPI wires dependencies.
func NewPaymentAPI(dispatcher paymentports.Dispatcher, orders ordersports.Service) PaymentAPI {
	return PaymentAPI{dispatcher: dispatcher, orders: orders}
}

// Post /api/payment/:id
// A rejected card returns the field map immediately and schedules the
// delayed best-effort failure mark for the order.
func (api *PaymentAPI) PayOrder(c *gin.Context) {
	identity, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	var card paymentapp.Card
	if err := c.ShouldBindJSON(&card); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	ctx := c.Request.Context()
	order, err := api.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ordersports.ErrNotFound) {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if order.UserID != identity.UserID {
		respondError(c, http.StatusNotFound, ordersports.ErrNotFound)
		return
	}
	if problems := card.Validate(); len(problems) > 0 {
		_ = api.dispatcher.DispatchFailure(ctx, orderID)
		respondFieldErrors(c, problems)
		return
	}
	if err := api.dispatcher.DispatchPayment(ctx, orderID); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "payment accepted for processing"})
}
