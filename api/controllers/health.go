package controllers

import (
	"context"
	"net/http"

	"github.com/tapcellar/tapcellar-backend/api/responses"
	"github.com/tapcellar/tapcellar-backend/pkg/config"
)

// Pinger is the readiness surface of a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TapCellar-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports degraded backing services without failing the check for
// optional ones: the database is required, the cache is not.
func HealthReady(cfg *config.Config, database, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TapCellar-Env", cfg.App.Env)

		checks := map[string]string{}
		status := http.StatusOK

		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				checks["database"] = "down"
				status = http.StatusServiceUnavailable
			} else {
				checks["database"] = "ok"
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				checks["cache"] = "down"
			} else {
				checks["cache"] = "ok"
			}
		}

		state := "ready"
		if status != http.StatusOK {
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
