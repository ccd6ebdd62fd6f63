package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mystreets/gumshoe/internal/engine"
)

type DeductionRequest struct {
	PlayerID    string `json:"playerId"`
	SuspectName string `json:"suspectName"`
	Reasoning   string `json:"reasoning"`
}

// ScoreInfo is the final tally, broken into its components.
type ScoreInfo struct {
	EvidenceFound   int     `json:"evidenceFound"`
	TotalEvidence   int     `json:"totalEvidence"`
	EvidencePoints  int     `json:"evidencePoints"`
	DeductionPoints int     `json:"deductionPoints"`
	DiscoveryBonus  int     `json:"discoveryBonus"`
	TimeBonus       int     `json:"timeBonus"`
	HintPenalty     int     `json:"hintPenalty"`
	Multiplier      float64 `json:"multiplier"`
	Total           int     `json:"total"`
}

type ReactionInfo struct {
	CharacterName string `json:"characterName"`
	Text          string `json:"text"`
	Kind          string `json:"kind"`
}

type DeductionResponse struct {
	Correct   bool           `json:"correct"`
	Accused   string         `json:"accused"`
	Culprit   string         `json:"culprit"`
	Score     ScoreInfo      `json:"score"`
	Reactions []ReactionInfo `json:"reactions"`
	Game      GameView       `json:"game"`
}

func handleDeduction(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeductionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.PlayerID = strings.TrimSpace(req.PlayerID)
		if req.PlayerID == "" {
			writeError(w, http.StatusBadRequest, "playerId is required")
			return
		}
		if strings.TrimSpace(req.SuspectName) == "" {
			writeError(w, http.StatusBadRequest, "suspectName is required")
			return
		}

		gameID := chi.URLParam(r, "gameID")
		res, err := eng.SubmitDeduction(r.Context(), engine.DeductionRequest{
			GameID:      gameID,
			PlayerID:    req.PlayerID,
			SuspectName: req.SuspectName,
			Reasoning:   req.Reasoning,
		})
		if err != nil {
			writeEngineError(w, err)
			return
		}

		reactions := make([]ReactionInfo, len(res.Reactions))
		for i, re := range res.Reactions {
			reactions[i] = ReactionInfo{
				CharacterName: re.CharacterName,
				Text:          re.Text,
				Kind:          re.Kind,
			}
		}

		broker.Publish(gameID, GameEvent{
			Type:        eventDeductionSubmitted,
			SuspectName: res.Accused,
			Correct:     res.Correct,
			Score:       res.Score.Total,
		})

		writeJSON(w, http.StatusOK, DeductionResponse{
			Correct: res.Correct,
			Accused: res.Accused,
			Culprit: res.Culprit,
			Score: ScoreInfo{
				EvidenceFound:   res.Score.EvidenceFound,
				TotalEvidence:   res.Score.TotalEvidence,
				EvidencePoints:  res.Score.EvidencePoints,
				DeductionPoints: res.Score.DeductionPoints,
				DiscoveryBonus:  res.Score.DiscoveryBonus,
				TimeBonus:       res.Score.TimeBonus,
				HintPenalty:     res.Score.HintPenalty,
				Multiplier:      res.Score.Multiplier,
				Total:           res.Score.Total,
			},
			Reactions: reactions,
			Game:      gameView(res.Session),
		})
	}
}
