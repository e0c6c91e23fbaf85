package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/internal/app"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, readiness map[string]pkgredis.Pinger) *testServer {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		Cart: config.CartConfig{
			TTL:         time.Hour,
			LockTTL:     5 * time.Second,
			LockWait:    time.Second,
			MaxLineQty:  99,
			MaxLineItem: 50,
		},
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	reg := prometheus.NewRegistry()
	client := db.NewFromGorm(dbtest.Open(t, models.All()...))

	services, err := app.Build(app.Params{
		Config:     cfg,
		Logger:     logg,
		DB:         client,
		Registerer: reg,
	})
	if err != nil {
		t.Fatalf("build services: %v", err)
	}

	return &testServer{t: t, handler: NewRouter(Dependencies{
		Config:      cfg,
		Logger:      logg,
		Readiness:   readiness,
		Idempotency: pkgredis.NewMemoryStore(nil),
		Gatherer:    reg,
		Products:    services.Products,
		Promotions:  services.Promotions,
		Carts:       services.Carts,
		Orders:      services.Orders,
		Favorites:   services.Favorites,
	})}
}

func (s *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %s: %v", resp.Body.String(), err)
	}
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d got %d: %s", want, resp.Code, resp.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, map[string]pkgredis.Pinger{"db": stubPinger{}})
	expectStatus(t, srv.do(http.MethodGet, "/health/live", nil, nil), http.StatusOK)
	expectStatus(t, srv.do(http.MethodGet, "/health/ready", nil, nil), http.StatusOK)

	failing := newTestServer(t, map[string]pkgredis.Pinger{"redis": stubPinger{err: errors.New("down")}})
	expectStatus(t, failing.do(http.MethodGet, "/health/ready", nil, nil), http.StatusServiceUnavailable)
}

func TestCheckoutFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	customer := map[string]string{"X-Customer-Id": "cust-1"}

	created := srv.do(http.MethodPost, "/api/admin/v1/products", map[string]any{
		"name":     "Ceramic Mug",
		"category": "kitchen",
		"price":    "12.50",
		"stock":    5,
	}, map[string]string{"Idempotency-Key": "product-1"})
	expectStatus(t, created, http.StatusCreated)
	var product struct {
		ID string `json:"id"`
	}
	decodeData(t, created, &product)

	cartResp := srv.do(http.MethodPost, "/api/v1/carts", nil, customer)
	expectStatus(t, cartResp, http.StatusCreated)
	var cartView struct {
		ID string `json:"id"`
	}
	decodeData(t, cartResp, &cartView)

	added := srv.do(http.MethodPost, "/api/v1/carts/"+cartView.ID+"/items", map[string]any{
		"product_id": product.ID,
		"quantity":   2,
	}, customer)
	expectStatus(t, added, http.StatusOK)
	var withItems struct {
		ItemCount int    `json:"item_count"`
		Total     string `json:"total"`
	}
	decodeData(t, added, &withItems)
	if withItems.ItemCount != 2 || withItems.Total != "25" {
		t.Fatalf("unexpected cart totals %+v", withItems)
	}

	tooMany := srv.do(http.MethodPatch, "/api/v1/carts/"+cartView.ID+"/items/"+product.ID, map[string]any{"quantity": 9}, customer)
	expectStatus(t, tooMany, http.StatusConflict)

	checkoutBody := map[string]any{
		"customer_name":    "Ana Lopez",
		"customer_email":   "ana@example.com",
		"shipping_address": "Calle 1, Madrid",
	}
	checkoutPath := "/api/v1/carts/" + cartView.ID + "/checkout"
	expectStatus(t, srv.do(http.MethodPost, checkoutPath, checkoutBody, customer), http.StatusBadRequest)

	withKey := map[string]string{"X-Customer-Id": "cust-1", "Idempotency-Key": "checkout-1"}
	first := srv.do(http.MethodPost, checkoutPath, checkoutBody, withKey)
	expectStatus(t, first, http.StatusCreated)
	var order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Total  string `json:"total"`
	}
	decodeData(t, first, &order)
	if order.Status != "pending" || order.Total != "25" {
		t.Fatalf("unexpected order %+v", order)
	}

	replay := srv.do(http.MethodPost, checkoutPath, checkoutBody, withKey)
	expectStatus(t, replay, http.StatusCreated)
	if replay.Header().Get("Idempotent-Replayed") != "true" || replay.Body.String() != first.Body.String() {
		t.Fatalf("expected replayed checkout response, got %s", replay.Body.String())
	}

	list := srv.do(http.MethodGet, "/api/v1/orders", nil, customer)
	expectStatus(t, list, http.StatusOK)
	var orders struct {
		Orders []struct {
			ID string `json:"id"`
		} `json:"orders"`
	}
	decodeData(t, list, &orders)
	if len(orders.Orders) != 1 || orders.Orders[0].ID != order.ID {
		t.Fatalf("expected the checked out order, got %+v", orders)
	}

	other := srv.do(http.MethodGet, "/api/v1/orders/"+order.ID, nil, map[string]string{"X-Customer-Id": "cust-2"})
	expectStatus(t, other, http.StatusNotFound)

	detail := srv.do(http.MethodGet, "/api/v1/products/"+product.ID, nil, nil)
	expectStatus(t, detail, http.StatusOK)
	var stocked struct {
		Stock int `json:"stock"`
	}
	decodeData(t, detail, &stocked)
	if stocked.Stock != 3 {
		t.Fatalf("expected stock decremented to 3, got %d", stocked.Stock)
	}

	metrics := srv.do(http.MethodGet, "/metrics", nil, nil)
	expectStatus(t, metrics, http.StatusOK)
	if !strings.Contains(metrics.Body.String(), `storefront_checkouts_total{result="ok"} 1`) {
		t.Fatalf("expected checkout counter in metrics output")
	}
}

func TestFavoritesRequireCustomer(t *testing.T) {
	srv := newTestServer(t, nil)
	expectStatus(t, srv.do(http.MethodGet, "/api/v1/favorites", nil, nil), http.StatusBadRequest)
	expectStatus(t, srv.do(http.MethodGet, "/api/v1/favorites/ids", nil, map[string]string{"X-Customer-Id": "cust-1"}), http.StatusOK)
}
