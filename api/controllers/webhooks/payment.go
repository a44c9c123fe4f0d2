package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/memoria-ph/memoria-backend/api/responses"
	"github.com/memoria-ph/memoria-backend/internal/orders"
	paymentwebhook "github.com/memoria-ph/memoria-backend/internal/webhooks/payment"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
)

type PaymentWebhookService interface {
	VerifyToken(token string) bool
	Process(ctx context.Context, event paymentwebhook.Event) (orders.ReconcileOutcome, error)
}

// paymentCallbackEnvelope mirrors the gateway's callback shape. Unknown
// fields are tolerated; gateways add them without notice.
type paymentCallbackEnvelope struct {
	Data struct {
		ID         string `json:"id"`
		ExternalID string `json:"external_id"`
		Status     string `json:"status"`
	} `json:"data"`
}

// PaymentWebhook receives invoice status callbacks from the payment
// gateway. The gateway only cares about a 2xx; the body is a fixed ack.
func PaymentWebhook(svc PaymentWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		if !svc.VerifyToken(r.Header.Get("x-callback-token")) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid callback token"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		var envelope paymentCallbackEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode callback payload"))
			return
		}

		_, err = svc.Process(ctx, paymentwebhook.Event{
			EventID:    envelope.Data.ID,
			ExternalID: envelope.Data.ExternalID,
			InvoiceID:  envelope.Data.ID,
			Status:     envelope.Data.Status,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// Ignored and duplicate deliveries still ack so the gateway stops
		// retrying.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}
