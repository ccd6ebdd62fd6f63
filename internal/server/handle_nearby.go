package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mystreets/gumshoe/internal/engine"
)

type NearbyItemInfo struct {
	EvidenceID       string  `json:"evidenceId"`
	Name             string  `json:"name"`
	POIName          string  `json:"poiName"`
	POICategory      string  `json:"poiCategory"`
	DistanceM        float64 `json:"distanceM"`
	DiscoveryRadiusM float64 `json:"discoveryRadiusM"`
}

type NearbyResponse struct {
	Items []NearbyItemInfo `json:"items"`
}

func handleNearby(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		playerID := strings.TrimSpace(q.Get("playerID"))
		if playerID == "" {
			writeError(w, http.StatusBadRequest, "playerID query parameter required")
			return
		}
		lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
		lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
		if latErr != nil || lngErr != nil {
			writeError(w, http.StatusBadRequest, "lat and lng query parameters required")
			return
		}
		loc, ok := parseCoordinates(Coordinates{Lat: lat, Lng: lng})
		if !ok {
			writeError(w, http.StatusBadRequest, "location is out of range")
			return
		}

		items, err := eng.NearbyEvidence(r.Context(), chi.URLParam(r, "gameID"), playerID, loc)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		resp := NearbyResponse{Items: make([]NearbyItemInfo, len(items))}
		for i, it := range items {
			resp.Items[i] = NearbyItemInfo{
				EvidenceID:       it.EvidenceID,
				Name:             it.Name,
				POIName:          it.POIName,
				POICategory:      it.POICategory,
				DistanceM:        it.DistanceM,
				DiscoveryRadiusM: it.DiscoveryRadiusM,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
