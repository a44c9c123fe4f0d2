package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memoria-ph/memoria-backend/api/responses"
	"github.com/memoria-ph/memoria-backend/api/validators"
	ordersvc "github.com/memoria-ph/memoria-backend/internal/orders"
	"github.com/memoria-ph/memoria-backend/pkg/enums"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
)

// AdminOrdersList returns all orders with optional status and date filters.
func AdminOrdersList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, filters, err := parseOrderListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAllOrders(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminOrdersGet returns any order by id.
func AdminOrdersGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type orderItemPatchPayload struct {
	ID        uuid.UUID        `json:"id" validate:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Quantity  *int             `json:"quantity"`
}

type fulfillmentPatchRequest struct {
	Status          *string                 `json:"status"`
	ShippingAddress *string                 `json:"shipping_address"`
	BillingAddress  *string                 `json:"billing_address"`
	Carrier         *string                 `json:"carrier"`
	TrackingNumber  *string                 `json:"tracking_number"`
	OrderTag        *string                 `json:"order_tag"`
	Subtotal        *decimal.Decimal        `json:"subtotal"`
	Tax             *decimal.Decimal        `json:"tax"`
	Shipping        *decimal.Decimal        `json:"shipping"`
	Total           *decimal.Decimal        `json:"total"`
	Items           []orderItemPatchPayload `json:"items" validate:"omitempty,dive"`
}

// AdminOrdersUpdate applies a partial fulfillment patch to one order.
// Payment statuses are rejected by the service; only provided fields move.
func AdminOrdersUpdate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload fulfillmentPatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patch := ordersvc.FulfillmentPatch{
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  payload.BillingAddress,
			Carrier:         payload.Carrier,
			TrackingNumber:  payload.TrackingNumber,
			OrderTag:        payload.OrderTag,
			Subtotal:        payload.Subtotal,
			Tax:             payload.Tax,
			Shipping:        payload.Shipping,
			Total:           payload.Total,
		}
		if payload.Status != nil {
			status, err := enums.ParseOrderStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			patch.Status = &status
		}
		for _, item := range payload.Items {
			patch.Items = append(patch.Items, ordersvc.ItemPatch{
				ID:        item.ID,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
			})
		}

		detail, err := svc.UpdateFulfillment(r.Context(), orderID, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type generateTrackingRequest struct {
	Carrier string `json:"carrier" validate:"required"`
}

// AdminOrdersGenerateTracking assigns the next sequential tracking number
// for the requested carrier.
func AdminOrdersGenerateTracking(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateTrackingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		carrier, err := enums.ParseCarrier(strings.TrimSpace(payload.Carrier))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid carrier"))
			return
		}

		trackingNumber, err := svc.GenerateTracking(r.Context(), orderID, carrier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"order_id":        orderID.String(),
			"carrier":         string(carrier),
			"tracking_number": trackingNumber,
		})
	}
}
