package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// withURLParam seeds a chi route parameter the way the router would.
func withURLParam(r *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}
