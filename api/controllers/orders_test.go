package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	ordersvc "github.com/memoria-ph/memoria-backend/internal/orders"
	"github.com/memoria-ph/memoria-backend/pkg/enums"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
)

func TestOrdersListSuccess(t *testing.T) {
	svc := &stubOrderService{list: &ordersvc.OrderList{
		Orders: []ordersvc.OrderSummary{{
			ID:     uuid.New(),
			Status: enums.OrderStatusPaid,
		}},
		NextCursor: "abc",
	}}
	handler := OrdersList(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/orders?limit=5", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data ordersvc.OrderList `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.NextCursor != "abc" {
		t.Fatalf("unexpected list %+v", envelope.Data)
	}
}

func TestOrdersListInvalidStatusFilter(t *testing.T) {
	handler := OrdersList(&stubOrderService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/orders?status=bogus", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrdersListRequiresAuth(t *testing.T) {
	handler := OrdersList(&stubOrderService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOrdersGetHidesForeignOrders(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	handler := OrdersGet(svc, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), "")
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrdersGetInvalidID(t *testing.T) {
	handler := OrdersGet(&stubOrderService{}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", "")
	req = withURLParam(req, "orderId", "not-a-uuid")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
