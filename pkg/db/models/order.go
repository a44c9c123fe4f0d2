package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memoria-ph/memoria-backend/pkg/enums"
)

// Order represents one checkout attempt and its payment/fulfillment lifecycle.
// Address fields are text snapshots captured at creation time; later edits to
// the customer's address book never touch past orders.
type Order struct {
	ID     uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	// ExternalID is the correlation key echoed back by payment callbacks.
	ExternalID string  `gorm:"column:external_id;not null;uniqueIndex"`
	InvoiceID  *string `gorm:"column:invoice_id"`
	InvoiceURL *string `gorm:"column:invoice_url"`

	Currency enums.Currency  `gorm:"column:currency;type:text;not null;default:'PHP'"`
	Subtotal decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax      decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null"`
	Shipping decimal.Decimal `gorm:"column:shipping;type:numeric(12,2);not null"`
	Total    decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	ShippingAddress *string `gorm:"column:shipping_address"`
	BillingAddress  *string `gorm:"column:billing_address"`

	Carrier        *string `gorm:"column:carrier"`
	TrackingNumber *string `gorm:"column:tracking_number"`

	OrderTag        *string    `gorm:"column:order_tag"`
	CadaverRecordID *uuid.UUID `gorm:"column:cadaver_record_id;type:uuid"`

	PaidAt *time.Time `gorm:"column:paid_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
