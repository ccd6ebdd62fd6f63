package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mystreets/gumshoe/internal/engine"
)

type HintRequest struct {
	PlayerID string `json:"playerId"`
	Level    int    `json:"level"`
}

type HintResponse struct {
	Level         int    `json:"level"`
	Text          string `json:"text"`
	Penalty       int    `json:"penalty"`
	HintsUsed     int    `json:"hintsUsed"`
	TotalPenalty  int    `json:"totalPenalty"`
	NextAvailable bool   `json:"nextAvailable"`
}

func handleHint(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HintRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.PlayerID = strings.TrimSpace(req.PlayerID)
		if req.PlayerID == "" {
			writeError(w, http.StatusBadRequest, "playerId is required")
			return
		}

		gameID := chi.URLParam(r, "gameID")
		res, err := eng.RequestHint(r.Context(), engine.HintRequest{
			GameID:   gameID,
			PlayerID: req.PlayerID,
			Level:    req.Level,
		})
		if err != nil {
			writeEngineError(w, err)
			return
		}

		broker.Publish(gameID, GameEvent{
			Type:      eventHintUsed,
			HintLevel: res.Hint.Level,
		})

		writeJSON(w, http.StatusOK, HintResponse{
			Level:         res.Hint.Level,
			Text:          res.Hint.Text,
			Penalty:       res.Hint.Penalty,
			HintsUsed:     res.HintsUsed,
			TotalPenalty:  res.TotalPenalty,
			NextAvailable: res.NextAvailable,
		})
	}
}

type EvidenceHintResponse struct {
	EvidenceID   string `json:"evidenceId"`
	Hint         string `json:"hint"`
	Discovered   bool   `json:"discovered"`
	Penalty      int    `json:"penalty"`
	TotalPenalty int    `json:"totalPenalty"`
}

func handleEvidenceHint(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := strings.TrimSpace(r.URL.Query().Get("playerID"))
		if playerID == "" {
			writeError(w, http.StatusBadRequest, "playerID query parameter required")
			return
		}

		gameID := chi.URLParam(r, "gameID")
		res, err := eng.EvidenceHint(r.Context(), gameID, playerID, chi.URLParam(r, "evidenceID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}

		if res.Penalty > 0 {
			broker.Publish(gameID, GameEvent{
				Type:       eventHintUsed,
				EvidenceID: res.EvidenceID,
			})
		}

		writeJSON(w, http.StatusOK, EvidenceHintResponse{
			EvidenceID:   res.EvidenceID,
			Hint:         res.Hint,
			Discovered:   res.Discovered,
			Penalty:      res.Penalty,
			TotalPenalty: res.TotalPenalty,
		})
	}
}
