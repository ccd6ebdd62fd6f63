package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mystreets/gumshoe/internal/engine"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

// Coordinates is the wire form of a location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type VictimInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SuspectInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Alibi       string `json:"alibi"`
	Motive      string `json:"motive"`
}

// ScenarioInfo is the mystery as shown to the player. Culprit stays empty
// until the game is completed.
type ScenarioInfo struct {
	Title    string        `json:"title"`
	Setting  string        `json:"setting"`
	Victim   VictimInfo    `json:"victim"`
	Suspects []SuspectInfo `json:"suspects"`
	Culprit  string        `json:"culprit,omitempty"`
}

// EvidenceInfo is one clue as shown to the player. The location is always
// visible so the map can mark where to walk; the description is withheld
// until the item is discovered or the game ends.
type EvidenceInfo struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description,omitempty"`
	Importance       string      `json:"importance"`
	Location         Coordinates `json:"location"`
	POIName          string      `json:"poiName"`
	POICategory      string      `json:"poiCategory"`
	DiscoveryRadiusM float64     `json:"discoveryRadiusM"`
	Discovered       bool        `json:"discovered"`
	DiscoveredAt     *time.Time  `json:"discoveredAt,omitempty"`
}

type ProgressInfo struct {
	TotalEvidence   int     `json:"totalEvidence"`
	DiscoveredCount int     `json:"discoveredCount"`
	CompletionRate  float64 `json:"completionRate"`
	DiscoveryBonus  int     `json:"discoveryBonus"`
	HintsUsed       int     `json:"hintsUsed"`
	HintPenalty     int     `json:"hintPenalty"`
	QuestionsAsked  int     `json:"questionsAsked"`
}

type GameView struct {
	GameID      string         `json:"gameId"`
	PlayerID    string         `json:"playerId"`
	Difficulty  string         `json:"difficulty"`
	Status      string         `json:"status"`
	Scenario    ScenarioInfo   `json:"scenario"`
	Evidence    []EvidenceInfo `json:"evidence"`
	Progress    ProgressInfo   `json:"progress"`
	Score       int            `json:"score"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

func handleGetGame(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := eng.GetSession(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, gameView(sess))
	}
}

func gameView(sess *gumshoe.GameSession) GameView {
	over := sess.Status == gumshoe.StatusCompleted

	sc := ScenarioInfo{
		Title:   sess.Scenario.Title,
		Setting: sess.Scenario.Setting,
		Victim: VictimInfo{
			Name:        sess.Scenario.Victim.Name,
			Description: sess.Scenario.Victim.Description,
		},
		Suspects: make([]SuspectInfo, len(sess.Scenario.Suspects)),
	}
	for i, su := range sess.Scenario.Suspects {
		sc.Suspects[i] = SuspectInfo{
			Name:        su.Name,
			Description: su.Description,
			Alibi:       su.Alibi,
			Motive:      su.Motive,
		}
	}
	if over {
		sc.Culprit = sess.Scenario.Culprit
	}

	evidence := make([]EvidenceInfo, len(sess.Evidence))
	for i, ev := range sess.Evidence {
		evidence[i] = evidenceInfo(ev, ev.Discovered || over)
	}

	total := len(sess.Evidence)
	rate := 0.0
	if total > 0 {
		rate = float64(sess.DiscoveredCount()) / float64(total)
	}

	return GameView{
		GameID:     sess.ID,
		PlayerID:   sess.PlayerID,
		Difficulty: string(sess.Difficulty),
		Status:     string(sess.Status),
		Scenario:   sc,
		Evidence:   evidence,
		Progress: ProgressInfo{
			TotalEvidence:   total,
			DiscoveredCount: sess.DiscoveredCount(),
			CompletionRate:  rate,
			DiscoveryBonus:  sess.DiscoveryBonus,
			HintsUsed:       sess.HintsUsed,
			HintPenalty:     sess.HintPenalty,
			QuestionsAsked:  sess.QuestionsAsked,
		},
		Score:       sess.Score,
		CreatedAt:   sess.CreatedAt,
		CompletedAt: sess.CompletedAt,
	}
}

func evidenceInfo(ev gumshoe.Evidence, revealed bool) EvidenceInfo {
	info := EvidenceInfo{
		ID:               ev.ID,
		Name:             ev.Name,
		Importance:       string(ev.Importance),
		Location:         Coordinates{Lat: ev.Location.Lat, Lng: ev.Location.Lng},
		POIName:          ev.POIName,
		POICategory:      ev.POICategory,
		DiscoveryRadiusM: ev.DiscoveryRadiusM,
		Discovered:       ev.Discovered,
		DiscoveredAt:     ev.DiscoveredAt,
	}
	if revealed {
		info.Description = ev.Description
	}
	return info
}

// parseCoordinates validates WGS-84 ranges on client-supplied coordinates.
func parseCoordinates(c Coordinates) (gumshoe.Location, bool) {
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return gumshoe.Location{}, false
	}
	return gumshoe.Location{Lat: c.Lat, Lng: c.Lng}, true
}
