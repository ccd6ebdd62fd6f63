package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mystreets/gumshoe/internal/registry"
)

// HealthResponse reports the hard dependency checks plus every lazy service's
// state. Service states are informational only: an uninitialized or errored
// service does not fail the probe, because the next use retries construction.
type HealthResponse struct {
	Status   string                            `json:"status"`
	Checks   map[string]string                 `json:"checks"`
	Services map[string]registry.ServiceStatus `json:"services"`
}

func handleHealth(logger *slog.Logger, db *sql.DB, rdb *redis.Client, services *registry.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:   "ok",
			Checks:   map[string]string{"sqlite": "ok"},
			Services: services.Status(),
		}
		status := http.StatusOK

		if err := db.PingContext(ctx); err != nil {
			logger.Error("health check failed", "name", "sqlite", "error", err)
			resp.Checks["sqlite"] = "error"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}

		if rdb != nil {
			resp.Checks["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Error("health check failed", "name", "redis", "error", err)
				resp.Checks["redis"] = "error"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, status, resp)
	}
}
