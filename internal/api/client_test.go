package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/esdaly/storefront/internal/domain"
	"github.com/esdaly/storefront/internal/imageurl"
	"github.com/esdaly/storefront/pkg/circuitbreaker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

func setupServer(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", opts...)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"not found", 404, "application/json", `{"message":"missing"}`, "product not found"},
		{"500 prefers error", 500, "application/json", `{"message":"Server error","error":"E11000 duplicate key"}`, "E11000 duplicate key"},
		{"message", 400, "application/json", `{"message":"Bad input","error":"ignored"}`, "Bad input"},
		{"error field", 403, "application/json", `{"error":"Forbidden"}`, "Forbidden"},
		{"status fallback", 409, "application/json", `{}`, "request failed (409)"},
		{"validation list overrides", 400, "application/json",
			`{"message":"Validation failed","errors":[{"msg":"Name is required"},{"message":"Email is invalid"}]}`,
			"Name is required\nEmail is invalid"},
		{"empty validation list", 400, "application/json", `{"message":"Bad input","errors":[]}`, "Bad input"},
		{"plain text", 502, "text/plain", "upstream down", "upstream down"},
		{"empty text", 503, "text/html", "", "error 503: Service Unavailable"},
		{"broken json", 400, "application/json", `{oops`, "connection error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, WithBreaker(circuitbreaker.Settings{Name: "test", ConsecutiveFailures: 100}))

			_, err := c.ListCategories(context.Background())
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestClient_ErrorSentinels(t *testing.T) {
	assert.ErrorIs(t, &Error{Status: 404}, ErrNotFound)
	assert.ErrorIs(t, &Error{Status: 401}, ErrUnauthorized)
	assert.ErrorIs(t, &Error{Status: 422}, ErrValidation)
	assert.ErrorIs(t, &Error{Status: 409, Errors: []FieldError{{Msg: "x"}}}, ErrValidation)
	assert.ErrorIs(t, &Error{Status: 503}, ErrUnavailable)
	assert.NotErrorIs(t, &Error{Status: 500}, ErrNotFound)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var auth atomic.Value
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{"success": true, "user": map[string]string{"_id": "u1", "name": "Mona"}})
	}, WithTokenSource(staticToken("abc")))

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Bearer abc", auth.Load())
}

func TestClient_AnonymousRequestHasNoAuthorization(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{"success": true, "stats": map[string]int{"customers": 12}})
	}, WithTokenSource(staticToken("")))

	stats, err := c.PublicStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Customers)
}

func TestClient_UnauthorizedHook(t *testing.T) {
	var called atomic.Int32
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]any{"success": false, "message": "Token expired"})
	}, WithUnauthorizedHandler(func(context.Context) { called.Add(1) }))

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualError(t, err, "Token expired")
	assert.Equal(t, int32(1), called.Load())
}

func TestClient_SuccessFalseEnvelope(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": false, "message": "Out of stock"})
	})

	_, err := c.CreateOrder(context.Background(), validOrder())
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Out of stock", apiErr.Message)
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url + "/api")
	_, err := c.ListCategories(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, 500, map[string]string{"error": "boom"})
	}, WithBreaker(circuitbreaker.Settings{Name: "test", ConsecutiveFailures: 2}))

	for i := 0; i < 2; i++ {
		_, err := c.ListCategories(context.Background())
		assert.EqualError(t, err, "boom")
	}

	_, err := c.ListCategories(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_ValidationHappensBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, 200, map[string]any{"success": true})
	})
	ctx := context.Background()

	_, err := c.Login(ctx, LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	order := validOrder()
	order.Payment = Payment{Method: PaymentBankTransfer}
	_, err = c.CreateOrder(ctx, order)
	assert.ErrorIs(t, err, ErrValidation)

	order = validOrder()
	order.Items = nil
	_, err = c.CreateOrder(ctx, order)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.Subscribe(ctx, SubscribeRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, hits.Load())
}

func TestClient_ListProductsQuery(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "12", q.Get("limit"))
		assert.Equal(t, "c1", q.Get("category"))
		assert.Equal(t, "100", q.Get("minPrice"))
		assert.Equal(t, "900.5", q.Get("maxPrice"))
		assert.Equal(t, "abaya", q.Get("search"))
		assert.Equal(t, "-price", q.Get("sort"))

		writeJSON(w, 200, map[string]any{
			"success": true,
			"total":   1,
			"pages":   1,
			"products": []map[string]any{{
				"_id":    "p1",
				"name":   "Abaya",
				"price":  450,
				"images": []map[string]string{{"url": "/uploads/products/a.jpg"}},
				"stock":  map[string]any{"quantity": 3, "trackInventory": true},
			}},
		})
	})

	minPrice := decimal.NewFromInt(100)
	maxPrice := decimal.RequireFromString("900.5")
	list, err := c.ListProducts(context.Background(), ProductQuery{
		Page: 2, Limit: 12, Category: "c1", MinPrice: &minPrice, MaxPrice: &maxPrice, Search: "abaya", Sort: "-price",
	})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, 1, list.Total)

	item := list.Products[0].CatalogItem(imageurl.NewResolver(c.BaseURL()))
	assert.Equal(t, "p1", item.ID)
	assert.True(t, strings.HasSuffix(item.Image, "/uploads/products/a.jpg"))
	assert.Equal(t, 3, item.Stock.Available())
}

func TestProduct_CatalogItem(t *testing.T) {
	r := imageurl.NewResolver("https://shop.example.com/api")

	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "p9",
		"name": "Scarf",
		"shortDescription": "Silk",
		"price": "120.50",
		"category": {"_id": "c2", "name": "Accessories"},
		"images": [{"url": "https://cdn.example.com/s.jpg"}, "/uploads/b.jpg"]
	}`), &p))

	item := p.CatalogItem(r)
	assert.Equal(t, "p9", item.ID)
	assert.Equal(t, "Silk", item.Description)
	assert.Equal(t, "https://cdn.example.com/s.jpg", item.Image)
	assert.Equal(t, "c2", p.CategoryID())
	assert.True(t, p.Active())
	assert.Equal(t, 0, item.Stock.Available(), "missing stock counts as tracked and empty")
	assert.Equal(t, domain.DefaultLowStockThreshold, item.Stock.LowStockThreshold)

	p.Category = json.RawMessage(`"c3"`)
	assert.Equal(t, "c3", p.CategoryID())
}

func TestClient_CreateProductMultipart(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Abaya", r.FormValue("name"))
		assert.Equal(t, "450", r.FormValue("price"))
		assert.JSONEq(t, `{"quantity":5,"trackInventory":true,"lowStockThreshold":10}`, r.FormValue("stock"))

		files := r.MultipartForm.File["images"]
		if assert.Len(t, files, 1) {
			assert.Equal(t, "front.jpg", files[0].Filename)
		}

		writeJSON(w, 201, map[string]any{"success": true, "product": map[string]any{"_id": "p1", "name": "Abaya"}})
	}, WithTokenSource(staticToken("admin")))

	p, err := c.CreateProduct(context.Background(), ProductInput{
		Name:        "Abaya",
		Description: "Black abaya",
		Price:       decimal.NewFromInt(450),
		Category:    "c1",
		Stock:       domain.TrackedStock(5),
		Images:      []Upload{{Filename: "front.jpg", Content: strings.NewReader("jpeg-bytes")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.Identifier())
}

func TestClient_Endpoints(t *testing.T) {
	type call struct {
		method string
		path   string
	}
	var mu sync.Mutex
	var got []call
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, call{r.Method, r.URL.Path})
		mu.Unlock()
		writeJSON(w, 200, map[string]any{"success": true})
	})
	ctx := context.Background()

	require.NoError(t, c.SetFeatured(ctx, "p1", true))
	require.NoError(t, c.DeleteProduct(ctx, "p1"))
	require.NoError(t, c.MarkReviewHelpful(ctx, "r1"))
	require.NoError(t, c.UpdateContactStatus(ctx, "m1", "read"))
	require.NoError(t, c.DeleteContact(ctx, "m1"))
	require.NoError(t, c.Unsubscribe(ctx, "a@b.co"))
	require.NoError(t, c.UpdateSubscriberStatus(ctx, "s1", "active"))
	require.NoError(t, c.DeleteSubscriber(ctx, "s1"))
	require.NoError(t, c.AddToWishlist(ctx, "p1"))
	require.NoError(t, c.RemoveFromWishlist(ctx, "p1"))
	require.NoError(t, c.ClearWishlist(ctx))
	_, err := c.UpdateOrderStatus(ctx, "o1", OrderStatusUpdate{Status: "shipped", TrackingNumber: "T1"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []call{
		{"PUT", "/api/products/p1/featured"},
		{"DELETE", "/api/products/p1"},
		{"PUT", "/api/reviews/r1/helpful"},
		{"PUT", "/api/contact/m1/status"},
		{"DELETE", "/api/contact/m1"},
		{"POST", "/api/newsletter/unsubscribe"},
		{"PUT", "/api/newsletter/s1/status"},
		{"DELETE", "/api/newsletter/s1"},
		{"POST", "/api/wishlist/p1"},
		{"DELETE", "/api/wishlist/p1"},
		{"DELETE", "/api/wishlist"},
		{"PUT", "/api/orders/o1/status"},
	}, got)
}

func TestClient_ReviewsQuery(t *testing.T) {
	c := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "p1", r.URL.Query().Get("productId"))
		writeJSON(w, 200, map[string]any{"success": true, "reviews": []map[string]any{{"_id": "r1", "rating": 5}}})
	})

	list, err := c.ListReviews(context.Background(), "p1", Page{Limit: 5})
	require.NoError(t, err)
	require.Len(t, list.Reviews, 1)
	assert.Equal(t, 5, list.Reviews[0].Rating)
}

func validOrder() CreateOrderRequest {
	addr := domain.Address{Name: "Mona", Phone: "0100", Street: "Tahrir 1", City: "Cairo", State: "Cairo"}
	return CreateOrderRequest{
		Items:           []OrderItem{{Product: "p1", Name: "Abaya", Quantity: 1, Price: decimal.NewFromInt(450)}},
		ShippingAddress: addr,
		BillingAddress:  addr,
		Payment:         Payment{Method: PaymentCash, Status: "pending"},
	}
}
