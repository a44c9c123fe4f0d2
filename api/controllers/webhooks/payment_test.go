package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/memoria-ph/memoria-backend/internal/orders"
	paymentwebhook "github.com/memoria-ph/memoria-backend/internal/webhooks/payment"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
)

type stubWebhookService struct {
	token   string
	outcome orders.ReconcileOutcome
	err     error
	events  []paymentwebhook.Event
}

func (s *stubWebhookService) VerifyToken(token string) bool {
	return token == s.token
}

func (s *stubWebhookService) Process(ctx context.Context, event paymentwebhook.Event) (orders.ReconcileOutcome, error) {
	s.events = append(s.events, event)
	if s.err != nil {
		return "", s.err
	}
	return s.outcome, nil
}

func callbackRequest(token, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-callback-token", token)
	}
	return req
}

const paidCallback = `{"data":{"id":"evt-1","external_id":"inv-abc","status":"PAID"}}`

func TestPaymentWebhookAcksAppliedEvent(t *testing.T) {
	svc := &stubWebhookService{token: "cb-secret", outcome: orders.OutcomeApplied}
	handler := PaymentWebhook(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, callbackRequest("cb-secret", paidCallback))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Body.String() != `{"ok":true}` {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
	if len(svc.events) != 1 || svc.events[0].ExternalID != "inv-abc" || svc.events[0].Status != "PAID" {
		t.Fatalf("unexpected events %+v", svc.events)
	}
}

func TestPaymentWebhookAcksIgnoredAndDuplicate(t *testing.T) {
	for _, outcome := range []orders.ReconcileOutcome{orders.OutcomeIgnored, orders.OutcomeDuplicate} {
		svc := &stubWebhookService{token: "cb-secret", outcome: outcome}
		handler := PaymentWebhook(svc, nil)

		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, callbackRequest("cb-secret", paidCallback))

		if resp.Code != http.StatusOK {
			t.Fatalf("outcome %s: expected 200 got %d", outcome, resp.Code)
		}
		if resp.Body.String() != `{"ok":true}` {
			t.Fatalf("outcome %s: unexpected body %q", outcome, resp.Body.String())
		}
	}
}

func TestPaymentWebhookRejectsBadToken(t *testing.T) {
	svc := &stubWebhookService{token: "cb-secret"}
	handler := PaymentWebhook(svc, nil)

	for _, token := range []string{"", "wrong"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, callbackRequest(token, paidCallback))

		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401 got %d", token, resp.Code)
		}
	}
	if len(svc.events) != 0 {
		t.Fatal("rejected callbacks must not reach processing")
	}
}

func TestPaymentWebhookRejectsMalformedBody(t *testing.T) {
	svc := &stubWebhookService{token: "cb-secret"}
	handler := PaymentWebhook(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, callbackRequest("cb-secret", `{"data":`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPaymentWebhookMapsUnmatchedOrderTo404(t *testing.T) {
	svc := &stubWebhookService{
		token: "cb-secret",
		err:   pkgerrors.New(pkgerrors.CodeNotFound, "no order matches callback"),
	}
	handler := PaymentWebhook(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, callbackRequest("cb-secret", paidCallback))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
