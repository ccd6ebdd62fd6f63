package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mystreets/gumshoe/internal/engine"
)

// handleEvents streams a game's events over SSE. Anyone who knows the game id
// may follow along; the feed carries nothing the session view does not.
func handleEvents(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("playerID") == "" {
			writeError(w, http.StatusBadRequest, "playerID query parameter required")
			return
		}

		gameID := chi.URLParam(r, "gameID")
		if _, err := eng.GetSession(r.Context(), gameID); err != nil {
			writeEngineError(w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ch := broker.Subscribe(gameID)
		defer broker.Unsubscribe(gameID, ch)

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "event: game\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
