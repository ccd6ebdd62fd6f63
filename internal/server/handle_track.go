package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/mystreets/gumshoe/internal/engine"
	"github.com/mystreets/gumshoe/internal/geo"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

// trackReply grades one fix and advises the client: how trustworthy the fix
// is, what discovery radius to draw, and any spoof flags it tripped.
type trackReply struct {
	Quality            string   `json:"quality"`
	RecommendedRadiusM float64  `json:"recommendedRadiusM"`
	Flags              []string `json:"flags,omitempty"`
}

// handleTrack upgrades to a WebSocket and consumes a stream of ReadingInfo
// frames. Every frame is recorded in the player's recent-readings log, which
// feeds the teleport heuristic on later discovery attempts.
func handleTrack(logger *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerID")
		if playerID == "" {
			writeError(w, http.StatusBadRequest, "playerID query parameter required")
			return
		}
		if _, err := eng.GetSession(r.Context(), chi.URLParam(r, "gameID")); err != nil {
			writeEngineError(w, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
		defer cancel()

		validator := eng.Validator()
		tracker := eng.Tracker()

		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("track stream ended", "player_id", playerID, "error", err)
				return
			}

			var frame ReadingInfo
			if err := json.Unmarshal(msg, &frame); err != nil {
				logger.Debug("bad track frame", "player_id", playerID, "error", err)
				continue
			}
			if frame.CapturedAt.IsZero() {
				frame.CapturedAt = time.Now().UTC()
			}

			reading := gumshoe.GPSReading{
				Location:   gumshoe.Location{Lat: frame.Lat, Lng: frame.Lng},
				AccuracyM:  frame.AccuracyM,
				CapturedAt: frame.CapturedAt,
			}

			var prev *gumshoe.GPSReading
			if last, ok := tracker.Last(playerID); ok {
				prev = &last
			}
			tracker.Record(playerID, reading)

			reply := trackReply{
				Quality:            geo.Quality(reading.AccuracyM),
				RecommendedRadiusM: validator.RecommendedRadius(geo.DefaultBaseRadiusM, &reading, ""),
				Flags:              validator.SpoofFlags(&reading, prev),
			}
			data, _ := json.Marshal(reply)
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				logger.Debug("track reply failed", "player_id", playerID, "error", err)
				return
			}
		}
	}
}
