package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memoria-ph/memoria-backend/api/responses"
	"github.com/memoria-ph/memoria-backend/api/validators"
	checkoutsvc "github.com/memoria-ph/memoria-backend/internal/checkout"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
)

type checkoutItemPayload struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	ImageURL  *string         `json:"image_url"`
}

type checkoutRequest struct {
	Items           []checkoutItemPayload `json:"items" validate:"required,min=1,dive"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Tax             decimal.Decimal       `json:"tax"`
	Shipping        decimal.Decimal       `json:"shipping"`
	Total           decimal.Decimal       `json:"total"`
	ShippingAddress *string               `json:"shipping_address"`
	BillingAddress  *string               `json:"billing_address"`
	OrderTag        *string               `json:"order_tag"`
	CadaverRecordID *uuid.UUID            `json:"cadaver_record_id"`
}

// Checkout commits a pending order and returns the hosted invoice url.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkoutsvc.ItemInput, len(payload.Items))
		for i, item := range payload.Items {
			items[i] = checkoutsvc.ItemInput{
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				ImageURL:  item.ImageURL,
			}
		}

		result, err := svc.Checkout(r.Context(), userID, checkoutsvc.Input{
			Items:           items,
			Subtotal:        payload.Subtotal,
			Tax:             payload.Tax,
			Shipping:        payload.Shipping,
			Total:           payload.Total,
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  payload.BillingAddress,
			OrderTag:        payload.OrderTag,
			CadaverRecordID: payload.CadaverRecordID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
