package controllers

import (
	"net/http"

	"github.com/memoria-ph/memoria-backend/api/responses"
	"github.com/memoria-ph/memoria-backend/pkg/config"
	"github.com/memoria-ph/memoria-backend/pkg/db"
	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Memoria-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the datastore dependencies. Either failing makes the
// instance not ready.
func HealthReady(cfg *config.Config, database db.Pinger, cache db.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Memoria-Env", cfg.App.Env)

		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
