package invoicing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/memoria-ph/memoria-backend/pkg/config"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
)

func testConfig(baseURL string) config.InvoicingConfig {
	return config.InvoicingConfig{
		BaseURL:        baseURL,
		APIKey:         "sk-test",
		CallbackToken:  "cb-secret",
		SuccessURL:     "https://memoria.ph/checkout/success",
		FailureURL:     "https://memoria.ph/checkout/failure",
		RequestTimeout: 5 * time.Second,
		Currency:       "PHP",
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	cfg := testConfig("https://gateway.example")
	cfg.APIKey = ""
	if _, err := NewClient(cfg, nil); err == nil {
		t.Fatal("expected error for missing api key")
	}

	cfg = testConfig("")
	if _, err := NewClient(cfg, nil); err == nil {
		t.Fatal("expected error for missing base url")
	}

	cfg = testConfig("https://gateway.example")
	cfg.CallbackToken = ""
	if _, err := NewClient(cfg, nil); err == nil {
		t.Fatal("expected error for missing callback token")
	}
}

func TestCreateInvoiceSuccess(t *testing.T) {
	var captured createInvoiceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/invoices" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, _, ok := r.BasicAuth()
		if !ok || user != "sk-test" {
			t.Fatalf("expected basic auth with api key")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Invoice{
			ID:         "inv_abc",
			ExternalID: captured.ExternalID,
			Status:     "PENDING",
			InvoiceURL: "https://gateway.example/pay/inv_abc",
		})
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	invoice, err := client.CreateInvoice(context.Background(), CreateInvoiceParams{
		ExternalID: "inv-019a",
		Amount:     decimal.RequireFromString("1120.00"),
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if invoice.ID != "inv_abc" {
		t.Fatalf("invoice id = %q", invoice.ID)
	}
	if invoice.InvoiceURL == "" {
		t.Fatal("expected hosted invoice url")
	}
	if captured.Amount != 1120 {
		t.Fatalf("amount sent = %v, want 1120", captured.Amount)
	}
	if captured.Currency != "PHP" {
		t.Fatalf("currency sent = %q, want PHP", captured.Currency)
	}
	if captured.SuccessRedirectURL == "" || captured.FailureRedirectURL == "" {
		t.Fatal("expected redirect urls to be forwarded")
	}
}

func TestCreateInvoiceGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error_code":"SERVER_ERROR","message":"upstream exploded"}`))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.CreateInvoice(context.Background(), CreateInvoiceParams{
		ExternalID: "inv-019b",
		Amount:     decimal.NewFromInt(500),
	})
	if err == nil {
		t.Fatal("expected gateway error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway code, got %v", err)
	}
	details, ok := appErr.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", appErr.Details())
	}
	if details["upstream_status"] != http.StatusBadGateway {
		t.Fatalf("upstream_status = %v", details["upstream_status"])
	}
}

func TestCreateInvoiceRejectsBadParams(t *testing.T) {
	client, err := NewClient(testConfig("https://gateway.example"), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.CreateInvoice(context.Background(), CreateInvoiceParams{
		Amount: decimal.NewFromInt(100),
	}); err == nil {
		t.Fatal("expected error for missing external id")
	}

	if _, err := client.CreateInvoice(context.Background(), CreateInvoiceParams{
		ExternalID: "inv-019c",
		Amount:     decimal.Zero,
	}); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
}
