package shopserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	basketmemory "github.com/meganoshop/backend/internal/domains/basket/adapters/memory"
	basketapp "github.com/meganoshop/backend/internal/domains/basket/application"
	catalogmemory "github.com/meganoshop/backend/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/meganoshop/backend/internal/domains/catalog/application"
	catalogdomain "github.com/meganoshop/backend/internal/domains/catalog/domain"
	ordersmemory "github.com/meganoshop/backend/internal/domains/orders/adapters/memory"
	ordersapp "github.com/meganoshop/backend/internal/domains/orders/application"
	ordersdomain "github.com/meganoshop/backend/internal/domains/orders/domain"
	paymentgateway "github.com/meganoshop/backend/internal/domains/payment/adapters/gateway"
	paymentworkflows "github.com/meganoshop/backend/internal/domains/payment/adapters/workflows"
	paymentapp "github.com/meganoshop/backend/internal/domains/payment/application"
	usermemory "github.com/meganoshop/backend/internal/domains/users/adapters/memory"
	userapp "github.com/meganoshop/backend/internal/domains/users/application"
	"github.com/meganoshop/backend/internal/platform/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	products *catalogmemory.Repository
	orders   *ordersmemory.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	catalogRepo := catalogmemory.NewRepository()
	ordersRepo := ordersmemory.NewRepository(catalogRepo)
	basketRepo := basketmemory.NewRepository()
	guestStore := basketmemory.NewGuestCartStore()
	usersRepo := usermemory.NewRepository()
	sessionStore := usermemory.NewSessionStore(time.Hour)
	store := cache.NewMemory()

	catalogService := catalogapp.NewService(catalogRepo, catalogapp.WithCache(store))
	basketService := basketapp.NewService(basketRepo, catalogService, basketapp.WithCache(store))
	guestService := basketapp.NewGuestService(guestStore, catalogService, basketapp.WithCache(store))
	merger := basketapp.NewCartMerger(basketRepo, guestStore, basketapp.WithCache(store))

	userService := userapp.NewService(usersRepo, sessionStore, userapp.WithCartMerger(merger))
	ordersService := ordersapp.NewService(ordersRepo, basketService, userService, ordersapp.WithCache(store))

	processor := paymentapp.NewProcessor(ordersRepo, paymentgateway.NewSimulated(0),
		paymentapp.WithCache(store),
		paymentapp.WithFailureDelay(0),
	)
	dispatcher := paymentworkflows.NewInlineDispatcher(processor, nil)

	handlers := ApiHandleFunctions{
		BasketAPI:  NewBasketAPI(basketService, guestService, ordersService),
		OrderAPI:   NewOrderAPI(ordersService, basketService),
		PaymentAPI: NewPaymentAPI(dispatcher, ordersService),
		UserAPI:    NewUserAPI(userService),
		CatalogAPI: NewCatalogAPI(catalogService),
	}
	router := NewRouter(handlers, SessionMiddleware(sessionStore))

	return &testServer{router: router, products: catalogRepo, orders: ordersRepo}
}

func (s *testServer) seedProduct(t *testing.T, title string, price float64, count int) *catalogdomain.Product {
	t.Helper()
	product, err := s.products.Save(t.Context(), &catalogdomain.Product{Title: title, Price: price, Count: count})
	require.NoError(t, err)
	return product
}

// client keeps the session cookie across requests, like a browser would.
type client struct {
	router  *gin.Engine
	cookies []*http.Cookie
}

func (s *testServer) client() *client {
	return &client{router: s.router}
}

func (c *client) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	c.router.ServeHTTP(recorder, req)
	if cookies := recorder.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &out))
	return out
}

func validCardPayload() map[string]string {
	return map[string]string{
		"name":   "ALICE COOPER",
		"number": "12345678",
		"month":  "12",
		"year":   "2026",
		"code":   "123",
	}
}

func TestCheckoutFlow(t *testing.T) {
	server := newTestServer(t)
	product := server.seedProduct(t, "Blender", 800, 5)
	c := server.client()

	// First contact issues a session cookie and an empty guest basket.
	recorder := c.do(t, http.MethodGet, "/api/basket", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	basket := decode[basketResponse](t, recorder)
	assert.Empty(t, basket.Items)
	require.NotNil(t, basket.DeliveryCondition)
	assert.Equal(t, 200.0, basket.DeliveryCondition.Cost)
	require.NotEmpty(t, c.cookies)

	// Guests can fill the cart before signing up.
	recorder = c.do(t, http.MethodPost, "/api/basket", basketLineRequest{ID: product.ID, Count: 2})
	require.Equal(t, http.StatusOK, recorder.Code)
	basket = decode[basketResponse](t, recorder)
	require.Len(t, basket.Items, 1)
	assert.Equal(t, 2, basket.Items[0].Count)

	// Sign-up adopts the session and merges the guest cart.
	recorder = c.do(t, http.MethodPost, "/api/sign-up", credentialsRequest{Username: "alice", Password: "secret"})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = c.do(t, http.MethodGet, "/api/basket", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	basket = decode[basketResponse](t, recorder)
	require.Len(t, basket.Items, 1)
	assert.Equal(t, 2, basket.Items[0].Count)

	// Checkout snapshots the cart into an order and empties the cart.
	recorder = c.do(t, http.MethodPost, "/api/orders", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	created := decode[map[string]int64](t, recorder)
	orderID := created["orderId"]
	require.NotZero(t, orderID)

	recorder = c.do(t, http.MethodGet, "/api/basket", nil)
	basket = decode[basketResponse](t, recorder)
	assert.Empty(t, basket.Items)

	// Confirmation stamps the form and freezes delivery pricing.
	recorder = c.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d", orderID), confirmationRequest{
		FullName:     "Alice Cooper",
		Email:        "alice@example.com",
		Phone:        "555-0101",
		City:         "Riga",
		Address:      "Main st 1",
		DeliveryType: "ordinary",
		PaymentType:  "online",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = c.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	order := decode[orderResponse](t, recorder)
	assert.Equal(t, "placed", order.Status)
	assert.Equal(t, "standard", order.DeliveryType)
	// 1600 of goods is under the 2000 threshold, so delivery is charged.
	assert.Equal(t, 1800.0, order.TotalCost)

	// Payment is accepted asynchronously and settles the order.
	recorder = c.do(t, http.MethodPost, fmt.Sprintf("/api/payment/%d", orderID), validCardPayload())
	require.Equal(t, http.StatusAccepted, recorder.Code)

	require.Eventually(t, func() bool {
		stored, err := server.orders.GetByID(t.Context(), orderID)
		return err == nil && stored.Status == ordersdomain.StatusPaid
	}, 2*time.Second, 10*time.Millisecond)

	stocked, err := server.products.GetByID(t.Context(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stocked.Count)
	assert.Equal(t, 2, stocked.SoldGoods)

	// The paid order shows up in the listing.
	recorder = c.do(t, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	orders := decode[[]orderResponse](t, recorder)
	require.Len(t, orders, 1)
	assert.Equal(t, "paid", orders[0].Status)
}

func TestPayOrder_RejectedCardMarksFailure(t *testing.T) {
	server := newTestServer(t)
	product := server.seedProduct(t, "Mixer", 300, 5)
	c := server.client()

	c.do(t, http.MethodPost, "/api/sign-up", credentialsRequest{Username: "bob", Password: "secret"})
	c.do(t, http.MethodPost, "/api/basket", basketLineRequest{ID: product.ID, Count: 1})
	recorder := c.do(t, http.MethodPost, "/api/orders", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	orderID := decode[map[string]int64](t, recorder)["orderId"]

	card := validCardPayload()
	card["number"] = "12345670" // ends in zero
	recorder = c.do(t, http.MethodPost, fmt.Sprintf("/api/payment/%d", orderID), card)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "number")

	require.Eventually(t, func() bool {
		stored, err := server.orders.GetByID(t.Context(), orderID)
		return err == nil && stored.Status == ordersdomain.StatusPaymentFailed
	}, 2*time.Second, 10*time.Millisecond)

	// Stock was never touched.
	stocked, err := server.products.GetByID(t.Context(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stocked.Count)
}

func TestOrders_RequireAuthentication(t *testing.T) {
	server := newTestServer(t)
	c := server.client()

	recorder := c.do(t, http.MethodPost, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = c.do(t, http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestGetOrder_OtherUsersOrderIsHidden(t *testing.T) {
	server := newTestServer(t)
	product := server.seedProduct(t, "Toaster", 150, 5)

	owner := server.client()
	owner.do(t, http.MethodPost, "/api/sign-up", credentialsRequest{Username: "alice", Password: "secret"})
	owner.do(t, http.MethodPost, "/api/basket", basketLineRequest{ID: product.ID, Count: 1})
	recorder := owner.do(t, http.MethodPost, "/api/orders", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	orderID := decode[map[string]int64](t, recorder)["orderId"]

	intruder := server.client()
	intruder.do(t, http.MethodPost, "/api/sign-up", credentialsRequest{Username: "mallory", Password: "secret"})
	recorder = intruder.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = intruder.do(t, http.MethodPost, fmt.Sprintf("/api/payment/%d", orderID), validCardPayload())
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSignIn_WrongPassword(t *testing.T) {
	server := newTestServer(t)
	c := server.client()

	c.do(t, http.MethodPost, "/api/sign-up", credentialsRequest{Username: "alice", Password: "secret"})
	c.do(t, http.MethodPost, "/api/sign-out", nil)

	recorder := c.do(t, http.MethodPost, "/api/sign-in", credentialsRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestProductAndReviews(t *testing.T) {
	server := newTestServer(t)
	product := server.seedProduct(t, "Kettle", 120, 9)
	c := server.client()

	recorder := c.do(t, http.MethodGet, fmt.Sprintf("/api/product/%d", product.ID), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Kettle")

	// Guests cannot review.
	recorder = c.do(t, http.MethodPost, fmt.Sprintf("/api/product/%d/reviews", product.ID), map[string]any{
		"author": "anon", "text": "nice", "rate": 5,
	})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	c.do(t, http.MethodPost, "/api/sign-up", credentialsRequest{Username: "carol", Password: "secret"})
	recorder = c.do(t, http.MethodPost, fmt.Sprintf("/api/product/%d/reviews", product.ID), map[string]any{
		"author": "carol", "email": "carol@example.com", "text": "boils fast", "rate": 5,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = c.do(t, http.MethodGet, fmt.Sprintf("/api/product/%d/reviews", product.ID), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "boils fast")
}
