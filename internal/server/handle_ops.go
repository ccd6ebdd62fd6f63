package server

import (
	"net/http"

	"github.com/mystreets/gumshoe/internal/engine"
	"github.com/mystreets/gumshoe/internal/registry"
)

type OpsStatusResponse struct {
	Services map[string]registry.ServiceStatus `json:"services"`
}

func handleOpsStatus(services *registry.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, OpsStatusResponse{Services: services.Status()})
	}
}

type WarmupRequest struct {
	Services []string `json:"services"`
}

// WarmupResponse maps each requested service to "ok" or its failure text.
type WarmupResponse struct {
	Results map[string]string `json:"results"`
}

// handleOpsWarmup eagerly initializes services so the first player does not
// pay the construction cost. Best effort: failures are reported per service,
// never as a request error, since the next use retries anyway.
func handleOpsWarmup(services *registry.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WarmupRequest
		if r.ContentLength > 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		names := req.Services
		if len(names) == 0 {
			names = []string{engine.ServiceStore, engine.ServiceGenAI, engine.ServicePlaces}
		}

		results := make(map[string]string, len(names))
		for name, err := range services.Warmup(r.Context(), names...) {
			if err != nil {
				results[name] = err.Error()
			} else {
				results[name] = "ok"
			}
		}
		writeJSON(w, http.StatusOK, WarmupResponse{Results: results})
	}
}
