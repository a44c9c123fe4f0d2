package controllers

import (
	"net/http"
	"time"

	"github.com/memoria-ph/memoria-backend/api/responses"
	"github.com/memoria-ph/memoria-backend/api/validators"
	ordersvc "github.com/memoria-ph/memoria-backend/internal/orders"
	"github.com/memoria-ph/memoria-backend/pkg/enums"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
	"github.com/memoria-ph/memoria-backend/pkg/pagination"
)

// OrdersList returns the caller's own orders, newest first.
func OrdersList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, filters, err := parseOrderListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrdersForUser(r.Context(), userID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrdersGet returns one of the caller's orders with its line items.
func OrdersGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetOrderForUser(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func parseOrderListQuery(r *http.Request) (pagination.Params, ordersvc.OrderFilters, error) {
	query := r.URL.Query()

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, ordersvc.OrderFilters{}, err
	}

	params := pagination.Params{
		Limit:  limit,
		Cursor: query.Get("cursor"),
	}

	var filters ordersvc.OrderFilters
	if raw := query.Get("status"); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return pagination.Params{}, ordersvc.OrderFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := query.Get("date_from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return pagination.Params{}, ordersvc.OrderFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_from")
		}
		filters.DateFrom = &from
	}
	if raw := query.Get("date_to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return pagination.Params{}, ordersvc.OrderFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_to")
		}
		filters.DateTo = &to
	}
	return params, filters, nil
}
