package enums

import "fmt"

// OrderStatus tracks the payment and fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusExpired,
	OrderStatusFailed,
	OrderStatusInTransit,
	OrderStatusShipped,
	OrderStatusCanceled,
	OrderStatusRefunded,
}

// fulfillmentStatuses are the values the admin console may set. Payment
// outcomes (paid/expired/failed) are reserved for the webhook path.
var fulfillmentStatuses = []OrderStatus{
	OrderStatusInTransit,
	OrderStatusShipped,
	OrderStatusCanceled,
	OrderStatusRefunded,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminalPayment reports whether the status is a webhook-set payment outcome.
func (s OrderStatus) IsTerminalPayment() bool {
	switch s {
	case OrderStatusPaid, OrderStatusExpired, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// IsFulfillment reports whether the status may be set through the admin path.
func (s OrderStatus) IsFulfillment() bool {
	for _, candidate := range fulfillmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
