package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/mystreets/gumshoe/internal/geo"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

type DiscoverRequest struct {
	GameID     string
	PlayerID   string
	EvidenceID string
	Location   gumshoe.Location
	Reading    *gumshoe.GPSReading
}

// DiscoveryResult reports one discovery attempt. Found is false both for
// attempts outside the effective radius and for readings the spoof
// heuristics flagged; the Validation field tells the two apart.
type DiscoveryResult struct {
	Found            bool
	Evidence         *gumshoe.Evidence
	Validation       geo.Validation
	BonusAwarded     int
	DiscoveredCount  int
	TotalEvidence    int
	AllEvidenceFound bool
	NextClue         string
}

// DiscoverEvidence checks whether the player is standing close enough to the
// named evidence and, if so, marks it discovered. A failed attempt never
// mutates the session; a flagged reading is reported back rather than
// rejected with an error so the client can retry with a clean fix.
func (e *Engine) DiscoverEvidence(ctx context.Context, req DiscoverRequest) (*DiscoveryResult, error) {
	store, err := e.store(ctx)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(req.GameID)
	defer unlock()

	sess, err := loadOwned(ctx, store, req.GameID, req.PlayerID)
	if err != nil {
		return nil, err
	}
	ev := sess.FindEvidence(req.EvidenceID)
	if ev == nil {
		return nil, fmt.Errorf("%w: evidence %q", gumshoe.ErrNotFound, req.EvidenceID)
	}
	if ev.Discovered {
		return nil, gumshoe.ErrAlreadyDiscovered
	}

	var prev *gumshoe.GPSReading
	if last, ok := e.tracker.Last(req.PlayerID); ok {
		prev = &last
	}
	validation := e.validator.Validate(req.Location, *ev, ev.DiscoveryRadiusM, req.Reading, prev)
	if req.Reading != nil {
		e.tracker.Record(req.PlayerID, *req.Reading)
	}

	result := &DiscoveryResult{
		Validation:      validation,
		DiscoveredCount: sess.DiscoveredCount(),
		TotalEvidence:   len(sess.Evidence),
	}
	if !validation.WithinRadius || validation.Suspicious {
		return result, nil
	}

	now := e.now().UTC()
	bonus := discoveryBonus(ev.Importance, validation.DistanceM)
	ev.Discovered = true
	ev.DiscoveredAt = &now
	sess.DiscoveryBonus += bonus
	sess.UpdatedAt = now
	if err := store.Save(ctx, sess); err != nil {
		return nil, err
	}

	found := *ev
	result.Found = true
	result.Evidence = &found
	result.BonusAwarded = bonus
	result.DiscoveredCount = sess.DiscoveredCount()
	result.AllEvidenceFound = sess.AllDiscovered()
	result.NextClue = nextClue(sess)

	e.logger.Info("evidence discovered",
		"game_id", sess.ID,
		"evidence_id", ev.ID,
		"distance_m", validation.DistanceM,
		"bonus", bonus,
		"found", result.DiscoveredCount,
		"total", result.TotalEvidence)
	return result, nil
}

// discoveryBonus scores a find by how important the clue is and how close
// the player got before claiming it.
func discoveryBonus(importance gumshoe.Importance, distanceM float64) int {
	base := 10
	switch importance {
	case gumshoe.ImportanceCritical:
		base = 50
	case gumshoe.ImportanceImportant:
		base = 30
	case gumshoe.ImportanceMisleading:
		base = 20
	}

	multiplier := 0.8
	switch {
	case distanceM <= 10:
		multiplier = 1.5
	case distanceM <= 30:
		multiplier = 1.2
	case distanceM <= 50:
		multiplier = 1.0
	}
	return int(float64(base) * multiplier)
}

// nextClue points the player toward what is left. With more than three
// clues outstanding it stays quiet; early-game wandering is the game.
func nextClue(sess *gumshoe.GameSession) string {
	remaining := sess.Remaining()
	switch {
	case len(remaining) == 0:
		return "Every clue is accounted for. Time to name the culprit."
	case len(remaining) == 1:
		return fmt.Sprintf("The last clue should be somewhere near %s.", remaining[0].POIName)
	case len(remaining) <= 3:
		names := []string{remaining[0].POIName, remaining[1].POIName}
		return fmt.Sprintf("Try looking around %s next.", strings.Join(names, " or "))
	}
	return ""
}
