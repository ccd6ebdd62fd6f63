package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mystreets/gumshoe/internal/engine"
)

const defaultHistoryLimit = 20

type HistoryItemInfo struct {
	GameID       string    `json:"gameId"`
	Title        string    `json:"title"`
	Difficulty   string    `json:"difficulty"`
	Score        int       `json:"score"`
	Correct      bool      `json:"correct"`
	EvidenceRate float64   `json:"evidenceRate"`
	DurationSec  int       `json:"durationSec"`
	CompletedAt  time.Time `json:"completedAt"`
}

type HistoryResponse struct {
	PlayerID string            `json:"playerId"`
	Games    []HistoryItemInfo `json:"games"`
}

func handleHistory(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")

		limit := defaultHistoryLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 100 {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
				return
			}
			limit = n
		}

		entries, err := eng.History(r.Context(), playerID, limit)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		resp := HistoryResponse{PlayerID: playerID, Games: make([]HistoryItemInfo, len(entries))}
		for i, e := range entries {
			resp.Games[i] = HistoryItemInfo{
				GameID:       e.GameID,
				Title:        e.Title,
				Difficulty:   string(e.Difficulty),
				Score:        e.Score,
				Correct:      e.Correct,
				EvidenceRate: e.EvidenceRate,
				DurationSec:  e.DurationSec,
				CompletedAt:  e.CompletedAt,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
