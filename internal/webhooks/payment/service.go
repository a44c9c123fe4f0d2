package payment

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/memoria-ph/memoria-backend/internal/orders"
	"github.com/memoria-ph/memoria-backend/pkg/config"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
	"github.com/memoria-ph/memoria-backend/pkg/redis"
)

const providerName = "payment"

// Event is the normalized callback payload after envelope decoding.
type Event struct {
	EventID    string
	ExternalID string
	InvoiceID  string
	Status     string
}

type reconciler interface {
	ReconcileCallback(ctx context.Context, input orders.ReconcileInput) (orders.ReconcileOutcome, error)
}

// Service verifies and deduplicates payment gateway callbacks before
// handing them to order reconciliation.
type Service interface {
	VerifyToken(token string) bool
	Process(ctx context.Context, event Event) (orders.ReconcileOutcome, error)
}

type service struct {
	orders        reconciler
	store         redis.IdempotencyStore
	callbackToken string
	cfg           config.WebhookConfig
	logg          *logger.Logger
}

// NewService builds the payment webhook handler.
func NewService(orderSvc reconciler, store redis.IdempotencyStore, callbackToken string, cfg config.WebhookConfig, logg *logger.Logger) (Service, error) {
	if orderSvc == nil {
		return nil, fmt.Errorf("orders reconciler required")
	}
	if store == nil {
		return nil, fmt.Errorf("event store required")
	}
	if callbackToken == "" {
		return nil, fmt.Errorf("callback token required")
	}
	return &service{
		orders:        orderSvc,
		store:         store,
		callbackToken: callbackToken,
		cfg:           cfg,
		logg:          logg,
	}, nil
}

// VerifyToken compares the x-callback-token header in constant time.
func (s *service) VerifyToken(token string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.callbackToken)) == 1
}

func (s *service) Process(ctx context.Context, event Event) (orders.ReconcileOutcome, error) {
	externalID := strings.TrimSpace(event.ExternalID)
	if externalID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "external_id is required")
	}
	if strings.TrimSpace(event.Status) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}

	// Gateways redeliver; the event id guard short-circuits exact repeats
	// without touching the database. Events without an id fall through to
	// the database-level guard in reconciliation.
	var dedupKey string
	if eventID := strings.TrimSpace(event.EventID); eventID != "" {
		dedupKey = s.store.WebhookEventKey(providerName, eventID)
		fresh, err := s.store.SetNX(ctx, dedupKey, "1", s.cfg.EventTTL)
		if err != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "webhook.dedup_unavailable", err)
			}
			dedupKey = ""
		} else if !fresh {
			return orders.OutcomeDuplicate, nil
		}
	}

	outcome, err := s.orders.ReconcileCallback(ctx, orders.ReconcileInput{
		EventID:    event.EventID,
		ExternalID: externalID,
		InvoiceID:  event.InvoiceID,
		Status:     event.Status,
	})
	if err != nil {
		// Release the guard so the gateway's retry is not swallowed.
		if dedupKey != "" {
			if delErr := s.store.Del(ctx, dedupKey); delErr != nil && s.logg != nil {
				s.logg.Error(ctx, "webhook.dedup_release_failed", delErr)
			}
		}
		return "", err
	}
	return outcome, nil
}
