package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mystreets/gumshoe/internal/gumshoe"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// engineStatus maps the engine's error kinds to HTTP statuses. Anything not
// listed is an internal error.
var engineStatus = []struct {
	kind   error
	status int
}{
	{gumshoe.ErrNotFound, http.StatusNotFound},
	{gumshoe.ErrForbidden, http.StatusForbidden},
	{gumshoe.ErrAlreadyCompleted, http.StatusConflict},
	{gumshoe.ErrAlreadyDiscovered, http.StatusConflict},
	{gumshoe.ErrTooManyActiveGames, http.StatusConflict},
	{gumshoe.ErrQuestionLimit, http.StatusConflict},
	{gumshoe.ErrHintLevel, http.StatusBadRequest},
	{gumshoe.ErrPlacement, http.StatusUnprocessableEntity},
	{gumshoe.ErrScenarioGeneration, http.StatusBadGateway},
	{gumshoe.ErrExternalTimeout, http.StatusGatewayTimeout},
	{gumshoe.ErrStoreUnavailable, http.StatusServiceUnavailable},
}

// writeEngineError translates an engine failure into the uniform error body.
// The body carries the kind's canonical message, not the wrapped detail.
func writeEngineError(w http.ResponseWriter, err error) {
	for _, m := range engineStatus {
		if errors.Is(err, m.kind) {
			writeError(w, m.status, m.kind.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
