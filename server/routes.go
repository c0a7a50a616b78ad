// Package shopserver exposes the shop HTTP API over gin. Handlers bind
// transport payloads and delegate to the bounded-context services; all
// errors leave as RFC 7807 problem responses.
package shopserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route binds one HTTP operation to its handler.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc gin.HandlerFunc
}

// Routes is the list of the server's HTTP operations.
type Routes []Route

// ApiHandleFunctions groups the per-context handler sets.
type ApiHandleFunctions struct {
	BasketAPI  BasketAPI
	OrderAPI   OrderAPI
	PaymentAPI PaymentAPI
	UserAPI    UserAPI
	CatalogAPI CatalogAPI
}

// NewRouter returns a gin engine with all API routes registered. The given
// middleware runs before the session middleware and the handlers.
func NewRouter(handlers ApiHandleFunctions, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.Default()
	for _, m := range middleware {
		router.Use(m)
	}
	for _, route := range getRoutes(handlers) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = defaultHandler
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

func defaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": "not implemented"})
}

func getRoutes(handlers ApiHandleFunctions) Routes {
	return Routes{
		{
			"GetBasket",
			http.MethodGet,
			"/api/basket",
			handlers.BasketAPI.GetBasket,
		},
		{
			"AddToBasket",
			http.MethodPost,
			"/api/basket",
			handlers.BasketAPI.AddToBasket,
		},
		{
			"RemoveFromBasket",
			http.MethodDelete,
			"/api/basket",
			handlers.BasketAPI.RemoveFromBasket,
		},
		{
			"ListOrders",
			http.MethodGet,
			"/api/orders",
			handlers.OrderAPI.ListOrders,
		},
		{
			"CreateOrder",
			http.MethodPost,
			"/api/orders",
			handlers.OrderAPI.CreateOrder,
		},
		{
			"GetOrder",
			http.MethodGet,
			"/api/orders/:id",
			handlers.OrderAPI.GetOrder,
		},
		{
			"ConfirmOrder",
			http.MethodPost,
			"/api/orders/:id",
			handlers.OrderAPI.ConfirmOrder,
		},
		{
			"PayOrder",
			http.MethodPost,
			"/api/payment/:id",
			handlers.PaymentAPI.PayOrder,
		},
		{
			"SignIn",
			http.MethodPost,
			"/api/sign-in",
			handlers.UserAPI.SignIn,
		},
		{
			"SignUp",
			http.MethodPost,
			"/api/sign-up",
			handlers.UserAPI.SignUp,
		},
		{
			"SignOut",
			http.MethodPost,
			"/api/sign-out",
			handlers.UserAPI.SignOut,
		},
		{
			"GetProduct",
			http.MethodGet,
			"/api/product/:id",
			handlers.CatalogAPI.GetProduct,
		},
		{
			"ListReviews",
			http.MethodGet,
			"/api/product/:id/reviews",
			handlers.CatalogAPI.ListReviews,
		},
		{
			"AddReview",
			http.MethodPost,
			"/api/product/:id/reviews",
			handlers.CatalogAPI.AddReview,
		},
	}
}
