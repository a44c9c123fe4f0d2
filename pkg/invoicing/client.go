// Package invoicing wraps the hosted-invoice payment gateway API.
//
// The gateway issues a hosted checkout page per invoice; we correlate
// invoices back to orders through the external_id we supply on create.
package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/memoria-ph/memoria-backend/pkg/config"
	apperrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
)

const invoicesPath = "/v2/invoices"

var (
	errBaseURLRequired       = errors.New("invoicing base url is required")
	errAPIKeyRequired        = errors.New("invoicing api key is required")
	errCallbackTokenRequired = errors.New("invoicing callback token is required")
)

// CreateInvoiceParams carries everything the gateway needs to build a
// hosted invoice page.
type CreateInvoiceParams struct {
	ExternalID  string
	Amount      decimal.Decimal
	Currency    string
	Description string
	PayerEmail  string
}

// Invoice is the subset of the gateway invoice we persist.
type Invoice struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	InvoiceURL string `json:"invoice_url"`
}

type createInvoiceRequest struct {
	ExternalID         string  `json:"external_id"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency,omitempty"`
	Description        string  `json:"description,omitempty"`
	PayerEmail         string  `json:"payer_email,omitempty"`
	SuccessRedirectURL string  `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string  `json:"failure_redirect_url,omitempty"`
}

type gatewayErrorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the invoice gateway over its REST API.
type Client struct {
	httpClient    httpDoer
	baseURL       string
	apiKey        string
	callbackToken string
	successURL    string
	failureURL    string
	currency      string
	logger        *logger.Logger
}

// NewClient validates the gateway config and returns a bounded HTTP client.
func NewClient(cfg config.InvoicingConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(cfg.CallbackToken) == "" {
		return nil, errCallbackTokenRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		apiKey:        cfg.APIKey,
		callbackToken: cfg.CallbackToken,
		successURL:    cfg.SuccessURL,
		failureURL:    cfg.FailureURL,
		currency:      cfg.Currency,
		logger:        logg,
	}, nil
}

// CallbackToken returns the shared secret expected on gateway callbacks.
func (c *Client) CallbackToken() string {
	if c == nil {
		return ""
	}
	return c.callbackToken
}

// CreateInvoice registers a hosted invoice for the given external id and
// amount, returning the gateway invoice id and checkout URL.
func (c *Client) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*Invoice, error) {
	if strings.TrimSpace(params.ExternalID) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "external id is required")
	}
	if !params.Amount.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "invoice amount must be positive")
	}

	currency := params.Currency
	if currency == "" {
		currency = c.currency
	}

	amount, _ := params.Amount.Round(2).Float64()
	body := createInvoiceRequest{
		ExternalID:         params.ExternalID,
		Amount:             amount,
		Currency:           currency,
		Description:        params.Description,
		PayerEmail:         params.PayerEmail,
		SuccessRedirectURL: c.successURL,
		FailureRedirectURL: c.failureURL,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding invoice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+invoicesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building invoice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeGateway, err, "invoice gateway unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeGateway, err, "reading invoice response")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.gatewayError(ctx, resp.StatusCode, raw)
	}

	var invoice Invoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeGateway, err, "decoding invoice response")
	}
	if invoice.ID == "" || invoice.InvoiceURL == "" {
		return nil, apperrors.New(apperrors.CodeGateway, "invoice response missing id or url")
	}
	return &invoice, nil
}

func (c *Client) gatewayError(ctx context.Context, status int, raw []byte) error {
	var parsed gatewayErrorBody
	_ = json.Unmarshal(raw, &parsed)

	message := parsed.Message
	if message == "" {
		message = http.StatusText(status)
	}
	if c.logger != nil {
		c.logger.Warn(ctx, fmt.Sprintf("invoice gateway rejected request: %d %s", status, message))
	}

	err := apperrors.New(apperrors.CodeGateway, "invoice gateway request failed")
	return err.WithDetails(map[string]any{
		"upstream_status": status,
		"upstream_code":   parsed.ErrorCode,
		"upstream_error":  message,
	})
}
