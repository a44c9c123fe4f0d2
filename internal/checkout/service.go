package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memoria-ph/memoria-backend/internal/cart"
	"github.com/memoria-ph/memoria-backend/internal/orders"
	"github.com/memoria-ph/memoria-backend/pkg/config"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
)

// ItemInput is one snapshotted product line submitted at checkout.
type ItemInput struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  *string         `json:"image_url,omitempty"`
}

// Input is the full checkout request. Monetary fields are client-computed
// snapshots and must satisfy total = subtotal + tax + shipping.
type Input struct {
	Items           []ItemInput
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress *string
	BillingAddress  *string
	OrderTag        *string
	CadaverRecordID *uuid.UUID
}

// Result is what the storefront needs to hand the buyer off to the
// hosted invoice page.
type Result struct {
	OrderID    uuid.UUID `json:"order_id"`
	ExternalID string    `json:"external_id"`
	Status     string    `json:"status"`
	InvoiceURL string    `json:"invoice_url"`
}

// Service runs the two-phase checkout: commit a pending order first, then
// ask the gateway for a hosted invoice. The order survives gateway failure.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

type service struct {
	orders orders.Service
	carts  cart.Service
	cfg    config.CheckoutConfig
	logg   *logger.Logger
}

// NewService builds the checkout orchestrator.
func NewService(orderSvc orders.Service, cartSvc cart.Service, cfg config.CheckoutConfig, logg *logger.Logger) (Service, error) {
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &service{orders: orderSvc, carts: cartSvc, cfg: cfg, logg: logg}, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	items := make([]orders.LineItemInput, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, orders.LineItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}

	order, err := s.orders.CreateProvisional(ctx, orders.CreateOrderInput{
		UserID:          userID,
		Items:           items,
		Subtotal:        input.Subtotal,
		Tax:             input.Tax,
		Shipping:        input.Shipping,
		Total:           input.Total,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		OrderTag:        input.OrderTag,
		CadaverRecordID: input.CadaverRecordID,
	})
	if err != nil {
		return nil, err
	}

	// The pending row is already durable. A gateway failure from here on
	// is reported to the caller but never rolls the order back.
	invoiceURL, err := s.orders.RequestInvoice(ctx, order.ID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed.WithDetails(map[string]any{"order_id": order.ID.String()})
		}
		return nil, err
	}

	if s.cfg.ClearCartOnSuccess {
		if clearErr := s.carts.Clear(ctx, userID); clearErr != nil && s.logg != nil {
			s.logg.Error(ctx, "checkout.cart_clear_failed", clearErr)
		}
	}

	return &Result{
		OrderID:    order.ID,
		ExternalID: order.ExternalID,
		Status:     string(order.Status),
		InvoiceURL: invoiceURL,
	}, nil
}
