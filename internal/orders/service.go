package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/memoria-ph/memoria-backend/pkg/db"
	"github.com/memoria-ph/memoria-backend/pkg/enums"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/invoicing"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
	"github.com/memoria-ph/memoria-backend/pkg/metrics"
	"github.com/memoria-ph/memoria-backend/pkg/pagination"

	"github.com/memoria-ph/memoria-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type invoiceCreator interface {
	CreateInvoice(ctx context.Context, params invoicing.CreateInvoiceParams) (*invoicing.Invoice, error)
}

// ReconcileOutcome reports how a payment callback was handled.
type ReconcileOutcome string

const (
	OutcomeApplied   ReconcileOutcome = "applied"
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	OutcomeIgnored   ReconcileOutcome = "ignored"
)

// LineItemInput is one snapshotted product line at checkout time.
type LineItemInput struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageURL  *string
}

// CreateOrderInput carries everything needed for a provisional order row.
type CreateOrderInput struct {
	UserID          uuid.UUID
	Items           []LineItemInput
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress *string
	BillingAddress  *string
	OrderTag        *string
	CadaverRecordID *uuid.UUID
}

// ReconcileInput is the normalized payment callback payload.
type ReconcileInput struct {
	EventID    string
	ExternalID string
	InvoiceID  string
	Status     string
}

// ItemPatch carries an admin correction to one order line.
type ItemPatch struct {
	ID        uuid.UUID
	UnitPrice *decimal.Decimal
	Quantity  *int
}

// FulfillmentPatch is the admin-only partial order update. Only non-nil
// fields are written.
type FulfillmentPatch struct {
	Status          *enums.OrderStatus
	ShippingAddress *string
	BillingAddress  *string
	Carrier         *string
	TrackingNumber  *string
	OrderTag        *string
	Subtotal        *decimal.Decimal
	Tax             *decimal.Decimal
	Shipping        *decimal.Decimal
	Total           *decimal.Decimal
	Items           []ItemPatch
}

// Service owns the order state machine and its gateway coordination.
type Service interface {
	CreateProvisional(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	RequestInvoice(ctx context.Context, orderID uuid.UUID) (string, error)
	ReconcileCallback(ctx context.Context, input ReconcileInput) (ReconcileOutcome, error)
	UpdateFulfillment(ctx context.Context, orderID uuid.UUID, patch FulfillmentPatch) (*OrderDetail, error)
	GenerateTracking(ctx context.Context, orderID uuid.UUID, carrier enums.Carrier) (string, error)
	GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderDetail, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
	ListOrdersForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListAllOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	gateway invoiceCreator
	metrics *metrics.PaymentMetrics
	logg    *logger.Logger
}

// NewService builds the order lifecycle service with its dependencies.
func NewService(repo Repository, tx txRunner, gateway invoiceCreator, pm *metrics.PaymentMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("invoice gateway required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		gateway: gateway,
		metrics: pm,
		logg:    logg,
	}, nil
}

// newExternalID returns the correlation id callbacks will echo back.
// Random, not time-based, so uniqueness does not depend on clock resolution.
func newExternalID() string {
	return "inv-" + uuid.NewString()
}

func (s *service) CreateProvisional(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item product id required")
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item name required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item price must not be negative")
		}
	}
	if input.Subtotal.IsNegative() || input.Tax.IsNegative() || input.Shipping.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "monetary fields must not be negative")
	}
	if !input.Total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}
	if !input.Total.Equal(input.Subtotal.Add(input.Tax).Add(input.Shipping)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total must equal subtotal + tax + shipping")
	}

	if input.CadaverRecordID != nil {
		if _, err := s.repo.FindCadaverRecord(ctx, *input.CadaverRecordID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "cadaver record not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cadaver record")
		}
	}

	order := &models.Order{
		UserID:          input.UserID,
		Status:          enums.OrderStatusPending,
		ExternalID:      newExternalID(),
		Currency:        enums.CurrencyPHP,
		Subtotal:        input.Subtotal,
		Tax:             input.Tax,
		Shipping:        input.Shipping,
		Total:           input.Total,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		OrderTag:        input.OrderTag,
		CadaverRecordID: input.CadaverRecordID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.CreateOrder(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		for _, in := range input.Items {
			items = append(items, models.OrderItem{
				OrderID:   created.ID,
				ProductID: in.ProductID,
				Name:      in.Name,
				UnitPrice: in.UnitPrice,
				Quantity:  in.Quantity,
				ImageURL:  in.ImageURL,
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) RequestInvoice(ctx context.Context, orderID uuid.UUID) (string, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.Status != enums.OrderStatusPending {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "invoice can only be requested for pending orders")
	}
	// Already invoiced; hand back the same hosted page.
	if order.InvoiceURL != nil && *order.InvoiceURL != "" {
		return *order.InvoiceURL, nil
	}

	start := time.Now()
	invoice, err := s.gateway.CreateInvoice(ctx, invoicing.CreateInvoiceParams{
		ExternalID:  order.ExternalID,
		Amount:      order.Total,
		Currency:    string(order.Currency),
		Description: invoiceDescription(order),
	})
	s.metrics.ObserveInvoiceDuration("create_invoice", time.Since(start))
	if err != nil {
		s.metrics.IncInvoiceFailure()
		return "", err
	}
	s.metrics.IncInvoiceSuccess()

	updates := map[string]any{
		"invoice_id":  invoice.ID,
		"invoice_url": invoice.InvoiceURL,
	}
	if err := s.repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist invoice reference")
	}
	return invoice.InvoiceURL, nil
}

func invoiceDescription(order *models.Order) string {
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return fmt.Sprintf("Memoria order %s (%d items)", order.ExternalID, count)
}

// ReconcileCallback is the single mutation path for terminal payment states.
// Safe under at-least-once delivery: the conditional settle matches zero rows
// on redelivery, so side effects apply exactly once.
func (s *service) ReconcileCallback(ctx context.Context, input ReconcileInput) (ReconcileOutcome, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "external id required")
	}

	order, err := s.repo.FindOrderByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncWebhookOutcome("unmatched")
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "no order matches callback external id")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by external id")
	}

	target, recognized := mapGatewayStatus(input.Status)
	if !recognized {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("ignoring unrecognized gateway status %q for %s", input.Status, externalID))
		}
		s.metrics.IncWebhookOutcome("ignored")
		return OutcomeIgnored, nil
	}

	outcome := OutcomeDuplicate
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := map[string]any{"status": target}
		if input.InvoiceID != "" && (order.InvoiceID == nil || *order.InvoiceID == "") {
			updates["invoice_id"] = input.InvoiceID
		}
		if target == enums.OrderStatusPaid {
			updates["paid_at"] = time.Now().UTC()
		}

		applied, err := repo.SettlePendingOrder(ctx, order.ID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle order")
		}
		if !applied {
			return nil
		}
		outcome = OutcomeApplied

		if target == enums.OrderStatusPaid && order.CadaverRecordID != nil {
			if err := repo.LinkCadaverRecord(ctx, *order.CadaverRecordID, order.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link cadaver record")
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.metrics.IncWebhookOutcome(string(outcome))
	if s.logg != nil {
		fields := map[string]any{"external_id": externalID, "outcome": string(outcome), "status": string(target)}
		s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), fields), "payment.reconciled")
	}
	return outcome, nil
}

func mapGatewayStatus(raw string) (enums.OrderStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PAID":
		return enums.OrderStatusPaid, true
	case "EXPIRED":
		return enums.OrderStatusExpired, true
	case "FAILED":
		return enums.OrderStatusFailed, true
	default:
		return "", false
	}
}

func (s *service) UpdateFulfillment(ctx context.Context, orderID uuid.UUID, patch FulfillmentPatch) (*OrderDetail, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Status != nil {
		if err := validateFulfillmentTransition(order.Status, *patch.Status); err != nil {
			return nil, err
		}
		updates["status"] = *patch.Status
	}
	if patch.ShippingAddress != nil {
		updates["shipping_address"] = *patch.ShippingAddress
	}
	if patch.BillingAddress != nil {
		updates["billing_address"] = *patch.BillingAddress
	}
	if patch.Carrier != nil {
		if _, err := enums.ParseCarrier(*patch.Carrier); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown carrier")
		}
		updates["carrier"] = strings.ToUpper(strings.TrimSpace(*patch.Carrier))
	}
	if patch.TrackingNumber != nil {
		updates["tracking_number"] = *patch.TrackingNumber
	}
	if patch.OrderTag != nil {
		updates["order_tag"] = *patch.OrderTag
	}
	if patch.Subtotal != nil {
		updates["subtotal"] = *patch.Subtotal
	}
	if patch.Tax != nil {
		updates["tax"] = *patch.Tax
	}
	if patch.Shipping != nil {
		updates["shipping"] = *patch.Shipping
	}
	if patch.Total != nil {
		updates["total"] = *patch.Total
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for _, item := range patch.Items {
			if item.ID == uuid.Nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "item patch id required")
			}
			if _, err := repo.FindOrderItem(ctx, order.ID, item.ID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
			}
			itemUpdates := map[string]any{}
			if item.UnitPrice != nil {
				if item.UnitPrice.IsNegative() {
					return pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative")
				}
				itemUpdates["unit_price"] = *item.UnitPrice
			}
			if item.Quantity != nil {
				if *item.Quantity <= 0 {
					return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
				}
				itemUpdates["quantity"] = *item.Quantity
			}
			if err := repo.UpdateOrderItem(ctx, item.ID, itemUpdates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
			}
		}

		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, order.ID)
}

// validateFulfillmentTransition keeps payment semantics out of the admin
// path. Terminal payment states are webhook-only.
func validateFulfillmentTransition(current, target enums.OrderStatus) error {
	if !target.IsFulfillment() {
		return pkgerrors.New(pkgerrors.CodeValidation, "status not allowed on the fulfillment path")
	}
	switch target {
	case enums.OrderStatusInTransit:
		if current != enums.OrderStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only paid orders can move in transit")
		}
	case enums.OrderStatusShipped:
		if current != enums.OrderStatusInTransit && current != enums.OrderStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order must be paid or in transit before shipping")
		}
	case enums.OrderStatusCanceled, enums.OrderStatusRefunded:
		if current == enums.OrderStatusShipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipped orders can no longer be canceled")
		}
	}
	return nil
}

func (s *service) GenerateTracking(ctx context.Context, orderID uuid.UUID, carrier enums.Carrier) (string, error) {
	if !carrier.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown carrier")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.TrackingNumber != nil && *order.TrackingNumber != "" {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "order already has a tracking number")
	}

	var number string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		seq, err := repo.NextTrackingSequence(ctx, string(carrier))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "next tracking sequence")
		}
		number = fmt.Sprintf("%s-%08d", carrier, seq)
		updates := map[string]any{
			"carrier":         string(carrier),
			"tracking_number": number,
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			if db.IsUniqueViolation(err, "idx_orders_carrier_tracking") {
				return pkgerrors.New(pkgerrors.CodeConflict, "tracking number already assigned")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind tracking number")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

func (s *service) GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderDetail, error) {
	detail, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if detail.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return detail, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toDetail(order), nil
}

func (s *service) ListOrdersForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListUserOrders(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListAllOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	list, err := s.repo.ListOrders(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func toDetail(order *models.Order) *OrderDetail {
	detail := &OrderDetail{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		ExternalID:      order.ExternalID,
		InvoiceID:       order.InvoiceID,
		InvoiceURL:      order.InvoiceURL,
		Currency:        order.Currency,
		Subtotal:        order.Subtotal,
		Tax:             order.Tax,
		Shipping:        order.Shipping,
		Total:           order.Total,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		Carrier:         order.Carrier,
		TrackingNumber:  order.TrackingNumber,
		OrderTag:        order.OrderTag,
		CadaverRecordID: order.CadaverRecordID,
		PaidAt:          order.PaidAt,
		Items:           make([]OrderItemSummary, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		detail.Items = append(detail.Items, OrderItemSummary{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return detail
}
