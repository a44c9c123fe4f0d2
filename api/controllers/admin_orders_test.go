package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	ordersvc "github.com/memoria-ph/memoria-backend/internal/orders"
	"github.com/memoria-ph/memoria-backend/pkg/db/models"
	"github.com/memoria-ph/memoria-backend/pkg/enums"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/pagination"
)

type stubOrderService struct {
	detail      *ordersvc.OrderDetail
	list        *ordersvc.OrderList
	tracking    string
	err         error
	patches     []ordersvc.FulfillmentPatch
	carriers    []enums.Carrier
	listFilters []ordersvc.OrderFilters
}

func (s *stubOrderService) CreateProvisional(ctx context.Context, input ordersvc.CreateOrderInput) (*models.Order, error) {
	return nil, nil
}

func (s *stubOrderService) RequestInvoice(ctx context.Context, orderID uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubOrderService) ReconcileCallback(ctx context.Context, input ordersvc.ReconcileInput) (ordersvc.ReconcileOutcome, error) {
	return ordersvc.OutcomeIgnored, nil
}

func (s *stubOrderService) UpdateFulfillment(ctx context.Context, orderID uuid.UUID, patch ordersvc.FulfillmentPatch) (*ordersvc.OrderDetail, error) {
	s.patches = append(s.patches, patch)
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func (s *stubOrderService) GenerateTracking(ctx context.Context, orderID uuid.UUID, carrier enums.Carrier) (string, error) {
	s.carriers = append(s.carriers, carrier)
	if s.err != nil {
		return "", s.err
	}
	return s.tracking, nil
}

func (s *stubOrderService) GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*ordersvc.OrderDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*ordersvc.OrderDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func (s *stubOrderService) ListOrdersForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ordersvc.OrderFilters) (*ordersvc.OrderList, error) {
	s.listFilters = append(s.listFilters, filters)
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

func (s *stubOrderService) ListAllOrders(ctx context.Context, params pagination.Params, filters ordersvc.OrderFilters) (*ordersvc.OrderList, error) {
	s.listFilters = append(s.listFilters, filters)
	if s.err != nil {
		return nil, s.err
	}
	return s.list, nil
}

func TestAdminOrdersUpdateParsesPatch(t *testing.T) {
	svc := &stubOrderService{detail: &ordersvc.OrderDetail{ID: uuid.New()}}
	handler := AdminOrdersUpdate(svc, nil)

	orderID := uuid.New()
	body := `{"status":"in_transit","carrier":"LBC","shipping_address":"123 Mabini St, Manila"}`
	req := authedRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID.String(), body)
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.patches) != 1 {
		t.Fatalf("expected one patch, got %d", len(svc.patches))
	}
	patch := svc.patches[0]
	if patch.Status == nil || *patch.Status != enums.OrderStatusInTransit {
		t.Fatalf("unexpected status patch %+v", patch.Status)
	}
	if patch.Carrier == nil || *patch.Carrier != "LBC" {
		t.Fatalf("unexpected carrier patch %+v", patch.Carrier)
	}
	if patch.Total != nil || patch.TrackingNumber != nil {
		t.Fatal("absent fields must stay nil")
	}
}

func TestAdminOrdersUpdateRejectsUnknownStatus(t *testing.T) {
	handler := AdminOrdersUpdate(&stubOrderService{}, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID.String(), `{"status":"paid-ish"}`)
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrdersUpdateStateConflict(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order already shipped")}
	handler := AdminOrdersUpdate(svc, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID.String(), `{"status":"canceled"}`)
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestAdminOrdersGenerateTracking(t *testing.T) {
	svc := &stubOrderService{tracking: "LBC-00000042"}
	handler := AdminOrdersGenerateTracking(svc, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID.String()+"/tracking", `{"carrier":"LBC"}`)
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["tracking_number"] != "LBC-00000042" {
		t.Fatalf("unexpected tracking number %q", envelope.Data["tracking_number"])
	}
	if len(svc.carriers) != 1 || svc.carriers[0] != enums.CarrierLBC {
		t.Fatalf("unexpected carriers %v", svc.carriers)
	}
}

func TestAdminOrdersGenerateTrackingInvalidCarrier(t *testing.T) {
	handler := AdminOrdersGenerateTracking(&stubOrderService{}, nil)

	orderID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID.String()+"/tracking", `{"carrier":"FEDEX9"}`)
	req = withURLParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrdersListFiltersByStatus(t *testing.T) {
	svc := &stubOrderService{list: &ordersvc.OrderList{Orders: []ordersvc.OrderSummary{}}}
	handler := AdminOrdersList(svc, nil)

	req := authedRequest(http.MethodGet, "/api/admin/v1/orders?status=paid&limit=10", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.listFilters) != 1 || svc.listFilters[0].Status == nil || *svc.listFilters[0].Status != enums.OrderStatusPaid {
		t.Fatalf("unexpected filters %+v", svc.listFilters)
	}
}
