package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mystreets/gumshoe/internal/engine"
)

type InterrogateRequest struct {
	PlayerID     string `json:"playerId"`
	SuspectName  string `json:"suspectName"`
	QuestionKind string `json:"questionKind"`
	Question     string `json:"question"`
}

type InterrogateResponse struct {
	SuspectName        string `json:"suspectName"`
	Question           string `json:"question"`
	Answer             string `json:"answer"`
	Reaction           string `json:"reaction"`
	QuestionsAsked     int    `json:"questionsAsked"`
	QuestionsRemaining int    `json:"questionsRemaining"`
}

func handleInterrogate(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req InterrogateRequest
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

		res, err := eng.InterrogateSuspect(r.Context(), engine.InterrogateRequest{
			GameID:       chi.URLParam(r, "gameID"),
			PlayerID:     req.PlayerID,
			SuspectName:  req.SuspectName,
			QuestionKind: req.QuestionKind,
			Question:     req.Question,
		})
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, InterrogateResponse{
			SuspectName:        res.SuspectName,
			Question:           res.Question,
			Answer:             res.Answer,
			Reaction:           res.Reaction,
			QuestionsAsked:     res.QuestionsAsked,
			QuestionsRemaining: res.QuestionsRemaining,
		})
	}
}
