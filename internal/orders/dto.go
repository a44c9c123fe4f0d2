package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memoria-ph/memoria-backend/pkg/enums"
)

// OrderFilters describe the inputs supported by the order lists.
type OrderFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderItemSummary is one snapshotted line in an order response.
type OrderItemSummary struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  *string         `json:"image_url,omitempty"`
}

// OrderSummary exposes the aggregated fields returned in order lists.
type OrderSummary struct {
	ID             uuid.UUID         `json:"id"`
	Status         enums.OrderStatus `json:"status"`
	Total          decimal.Decimal   `json:"total"`
	Currency       enums.Currency    `json:"currency"`
	ItemCount      int               `json:"item_count"`
	TrackingNumber *string           `json:"tracking_number,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderDetail is the full order representation returned to callers.
type OrderDetail struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	Status          enums.OrderStatus  `json:"status"`
	ExternalID      string             `json:"external_id"`
	InvoiceID       *string            `json:"invoice_id,omitempty"`
	InvoiceURL      *string            `json:"invoice_url,omitempty"`
	Currency        enums.Currency     `json:"currency"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Tax             decimal.Decimal    `json:"tax"`
	Shipping        decimal.Decimal    `json:"shipping"`
	Total           decimal.Decimal    `json:"total"`
	ShippingAddress *string            `json:"shipping_address,omitempty"`
	BillingAddress  *string            `json:"billing_address,omitempty"`
	Carrier         *string            `json:"carrier,omitempty"`
	TrackingNumber  *string            `json:"tracking_number,omitempty"`
	OrderTag        *string            `json:"order_tag,omitempty"`
	CadaverRecordID *uuid.UUID         `json:"cadaver_record_id,omitempty"`
	PaidAt          *time.Time         `json:"paid_at,omitempty"`
	Items           []OrderItemSummary `json:"items"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
