package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mystreets/gumshoe/internal/engine"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

// ReadingInfo is a raw GPS fix as reported by the device.
type ReadingInfo struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracyM"`
	CapturedAt time.Time `json:"capturedAt"`
}

type DiscoverRequest struct {
	PlayerID string       `json:"playerId"`
	Location Coordinates  `json:"location"`
	Reading  *ReadingInfo `json:"reading"`
}

// DiscoverResponse reports one attempt. A miss is a 200 with found=false:
// either the player is outside the effective radius or the reading tripped
// the spoof heuristics, and the validation fields tell the two apart.
type DiscoverResponse struct {
	Found            bool          `json:"found"`
	Evidence         *EvidenceInfo `json:"evidence,omitempty"`
	DistanceM        float64       `json:"distanceM"`
	EffectiveRadiusM float64       `json:"effectiveRadiusM"`
	WithinRadius     bool          `json:"withinRadius"`
	Suspicious       bool          `json:"suspicious"`
	Flags            []string      `json:"flags,omitempty"`
	BonusAwarded     int           `json:"bonusAwarded,omitempty"`
	DiscoveredCount  int           `json:"discoveredCount"`
	TotalEvidence    int           `json:"totalEvidence"`
	AllEvidenceFound bool          `json:"allEvidenceFound"`
	NextClue         string        `json:"nextClue,omitempty"`
}

func handleDiscover(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DiscoverRequest
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

		dreq := engine.DiscoverRequest{
			GameID:     chi.URLParam(r, "gameID"),
			PlayerID:   req.PlayerID,
			EvidenceID: chi.URLParam(r, "evidenceID"),
			Location:   loc,
		}
		if req.Reading != nil {
			dreq.Reading = &gumshoe.GPSReading{
				Location:   gumshoe.Location{Lat: req.Reading.Lat, Lng: req.Reading.Lng},
				AccuracyM:  req.Reading.AccuracyM,
				CapturedAt: req.Reading.CapturedAt,
			}
		}

		res, err := eng.DiscoverEvidence(r.Context(), dreq)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		resp := DiscoverResponse{
			Found:            res.Found,
			DistanceM:        res.Validation.DistanceM,
			EffectiveRadiusM: res.Validation.EffectiveRadiusM,
			WithinRadius:     res.Validation.WithinRadius,
			Suspicious:       res.Validation.Suspicious,
			Flags:            res.Validation.Flags,
			BonusAwarded:     res.BonusAwarded,
			DiscoveredCount:  res.DiscoveredCount,
			TotalEvidence:    res.TotalEvidence,
			AllEvidenceFound: res.AllEvidenceFound,
			NextClue:         res.NextClue,
		}
		if res.Evidence != nil {
			info := evidenceInfo(*res.Evidence, true)
			resp.Evidence = &info
		}

		if res.Found {
			broker.Publish(dreq.GameID, GameEvent{
				Type:            eventEvidenceDiscovered,
				EvidenceID:      res.Evidence.ID,
				EvidenceName:    res.Evidence.Name,
				DiscoveredCount: res.DiscoveredCount,
				TotalEvidence:   res.TotalEvidence,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
