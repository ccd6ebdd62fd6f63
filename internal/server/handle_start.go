package server

import (
	"net/http"
	"strings"

	"github.com/mystreets/gumshoe/internal/engine"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

type StartGameRequest struct {
	PlayerID   string      `json:"playerId"`
	Location   Coordinates `json:"location"`
	Difficulty string      `json:"difficulty"`
}

func handleStartGame(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.PlayerID = strings.TrimSpace(req.PlayerID)
		if req.PlayerID == "" {
			writeError(w, http.StatusBadRequest, "playerId is required")
			return
		}
		loc, ok := parseCoordinates(req.Location)
		if !ok {
			writeError(w, http.StatusBadRequest, "location is out of range")
			return
		}

		difficulty := gumshoe.DifficultyEasy
		if req.Difficulty != "" {
			d, ok := gumshoe.ParseDifficulty(req.Difficulty)
			if !ok {
				writeError(w, http.StatusBadRequest, "difficulty must be easy, normal or hard")
				return
			}
			difficulty = d
		}

		sess, err := eng.StartGame(r.Context(), engine.StartRequest{
			PlayerID:   req.PlayerID,
			Difficulty: difficulty,
			Location:   loc,
		})
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, gameView(sess))
	}
}
