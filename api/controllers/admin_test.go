package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type stubOrderAdmin struct {
	status     enums.OrderStatus
	listInput  ordersvc.ListInput
	detailFor  string
	updateCall bool
}

func (s *stubOrderAdmin) Get(ctx context.Context, id uuid.UUID, customerID string) (*ordersvc.OrderDTO, error) {
	s.detailFor = customerID
	return &ordersvc.OrderDTO{ID: id}, nil
}

func (s *stubOrderAdmin) List(ctx context.Context, input ordersvc.ListInput) (*ordersvc.OrderList, error) {
	s.listInput = input
	return &ordersvc.OrderList{Orders: []ordersvc.OrderDTO{}}, nil
}

func (s *stubOrderAdmin) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*ordersvc.OrderDTO, error) {
	s.updateCall = true
	s.status = status
	return &ordersvc.OrderDTO{ID: id, Status: status}, nil
}

type stubProductAdmin struct {
	created productsvc.CreateInput
	deleted uuid.UUID
}

func (s *stubProductAdmin) Create(ctx context.Context, input productsvc.CreateInput) (*productsvc.ProductDTO, error) {
	s.created = input
	return &productsvc.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubProductAdmin) Update(ctx context.Context, id uuid.UUID, input productsvc.UpdateInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{ID: id}, nil
}

func (s *stubProductAdmin) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = id
	return nil
}

type stubPromotionAdmin struct {
	created promotions.CreateInput
}

func (s *stubPromotionAdmin) Create(ctx context.Context, input promotions.CreateInput) (*promotions.PromotionDTO, error) {
	s.created = input
	return &promotions.PromotionDTO{}, nil
}

func (s *stubPromotionAdmin) Update(ctx context.Context, id uuid.UUID, input promotions.UpdateInput) (*promotions.PromotionDTO, error) {
	return &promotions.PromotionDTO{}, nil
}

func (s *stubPromotionAdmin) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubPromotionAdmin) Get(ctx context.Context, id uuid.UUID) (*promotions.PromotionDTO, error) {
	return &promotions.PromotionDTO{}, nil
}

func (s *stubPromotionAdmin) List(ctx context.Context, includeDeleted bool) ([]promotions.PromotionDTO, error) {
	return []promotions.PromotionDTO{}, nil
}

func TestAdminOrderStatusParsesStatus(t *testing.T) {
	id := uuid.New()
	svc := &stubOrderAdmin{}

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/orders/"+id.String()+"/status", strings.NewReader(`{"status":" Shipped "}`))
	req = withURLParams(req, map[string]string{"orderId": id.String()})
	resp := httptest.NewRecorder()
	AdminOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", svc.status)
	}

	svc = &stubOrderAdmin{}
	req = httptest.NewRequest(http.MethodPatch, "/api/admin/v1/orders/"+id.String()+"/status", strings.NewReader(`{"status":"lost"}`))
	req = withURLParams(req, map[string]string{"orderId": id.String()})
	resp = httptest.NewRecorder()
	AdminOrderStatus(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.updateCall {
		t.Fatal("service should not be called with an unknown status")
	}
}

func TestAdminOrderListFilters(t *testing.T) {
	svc := &stubOrderAdmin{}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?customer_id=cust-9&status=paid&limit=5", nil)
	resp := httptest.NewRecorder()
	AdminOrderList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listInput.CustomerID != "cust-9" || svc.listInput.Pagination.Limit != 5 {
		t.Fatalf("unexpected list input %+v", svc.listInput)
	}
	if svc.listInput.Status == nil || *svc.listInput.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid filter, got %v", svc.listInput.Status)
	}
}

func TestAdminOrderDetailIsUnscoped(t *testing.T) {
	id := uuid.New()
	svc := &stubOrderAdmin{detailFor: "unset"}
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders/"+id.String(), nil), map[string]string{"orderId": id.String()})
	resp := httptest.NewRecorder()
	AdminOrderDetail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || svc.detailFor != "" {
		t.Fatalf("expected unscoped lookup, status=%d customer=%q", resp.Code, svc.detailFor)
	}
}

func TestAdminCreateProductValidatesPrice(t *testing.T) {
	svc := &stubProductAdmin{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products", strings.NewReader(`{"name":"Mug","category":"kitchen","price":"0","stock":1}`))
	resp := httptest.NewRecorder()
	AdminCreateProduct(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero price got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/v1/products", strings.NewReader(`{"name":"  Mug ","category":"kitchen","price":"9.99","stock":3}`))
	resp = httptest.NewRecorder()
	AdminCreateProduct(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created.Name != "Mug" || svc.created.Stock != 3 {
		t.Fatalf("unexpected create input %+v", svc.created)
	}
}

func TestAdminDeleteProductAnswersNoContent(t *testing.T) {
	id := uuid.New()
	svc := &stubProductAdmin{}
	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/api/admin/v1/products/"+id.String(), nil), map[string]string{"productId": id.String()})
	resp := httptest.NewRecorder()
	AdminDeleteProduct(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent || svc.deleted != id {
		t.Fatalf("expected 204 and delete of %s, got %d / %s", id, resp.Code, svc.deleted)
	}
}

func TestAdminCreatePromotionAcceptsMixedProductRefs(t *testing.T) {
	svc := &stubPromotionAdmin{}
	raw := uuid.NewString()
	embedded := uuid.NewString()
	body := `{"title":"Spring","discount":20,"start_date":"2026-04-01T00:00:00Z","end_date":"2026-04-30T00:00:00Z",` +
		`"products":["` + raw + `",{"id":"` + embedded + `","name":"Mug","price":"10"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/promotions", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AdminCreatePromotion(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.created.Products) != 2 || svc.created.Products[0].ID() != raw || svc.created.Products[1].ID() != embedded {
		t.Fatalf("unexpected product refs %+v", svc.created.Products)
	}
}

func TestAdminCreatePromotionRejectsInvertedDates(t *testing.T) {
	svc := &stubPromotionAdmin{}
	body := `{"title":"Spring","discount":20,"start_date":"2026-04-30T00:00:00Z","end_date":"2026-04-01T00:00:00Z","products":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/promotions", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AdminCreatePromotion(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
