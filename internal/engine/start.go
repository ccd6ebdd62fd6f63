package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/mystreets/gumshoe/internal/genai"
	"github.com/mystreets/gumshoe/internal/geo"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

type StartRequest struct {
	PlayerID   string
	Difficulty gumshoe.Difficulty
	Location   gumshoe.Location
}

// StartGame builds a new case around the player's location: finds spots for
// the evidence, has the scenario written, binds clues to places, and
// persists the whole session in one write. Nothing is stored until every
// step has succeeded.
func (e *Engine) StartGame(ctx context.Context, req StartRequest) (*gumshoe.GameSession, error) {
	store, err := e.store(ctx)
	if err != nil {
		return nil, err
	}
	active, err := store.CountActive(ctx, req.PlayerID)
	if err != nil {
		return nil, err
	}
	if active >= maxActiveGames {
		return nil, fmt.Errorf("%w: %d games already running", gumshoe.ErrTooManyActiveGames, active)
	}

	finder, err := e.placements(ctx)
	if err != nil {
		return nil, err
	}
	count := req.Difficulty.EvidenceCount()
	placements, err := finder.FindPlacements(ctx, req.Location, count, searchRadiusM)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gumshoe.ErrPlacement, err)
	}
	if len(placements) < count {
		return nil, fmt.Errorf("%w: found %d spots, need %d", gumshoe.ErrPlacement, len(placements), count)
	}

	gen, err := e.generator(ctx)
	if err != nil {
		return nil, err
	}
	poiNames := make([]string, len(placements))
	for i, p := range placements {
		poiNames[i] = p.POI.Name
	}
	scenario, err := gen.GenerateScenario(ctx, genai.ScenarioRequest{
		Locality:   fmt.Sprintf("%.4f,%.4f", req.Location.Lat, req.Location.Lng),
		Difficulty: req.Difficulty,
		POINames:   poiNames,
	})
	if err != nil {
		return nil, err
	}
	seeds, err := gen.GenerateEvidence(ctx, scenario, placements, count)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	sess := &gumshoe.GameSession{
		ID:            e.newID(),
		PlayerID:      req.PlayerID,
		Difficulty:    req.Difficulty,
		Status:        gumshoe.StatusActive,
		Scenario:      scenario,
		Evidence:      bindEvidence(seeds, placements),
		StartLocation: req.Location,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.Create(ctx, sess); err != nil {
		return nil, err
	}

	e.logger.Info("game started",
		"game_id", sess.ID,
		"player_id", sess.PlayerID,
		"difficulty", string(sess.Difficulty),
		"evidence", len(sess.Evidence),
		"title", scenario.Title)
	return sess, nil
}

// bindEvidence pairs narrative seeds with map placements. A seed that names
// a known spot goes there; otherwise it takes the placement at its own
// position, which also resolves made-up place names.
func bindEvidence(seeds []genai.EvidenceSeed, placements []gumshoe.Placement) []gumshoe.Evidence {
	evidence := make([]gumshoe.Evidence, len(seeds))
	for i, seed := range seeds {
		placement := placements[i%len(placements)]
		for _, p := range placements {
			if strings.EqualFold(p.POI.Name, seed.POIName) {
				placement = p
				break
			}
		}

		importance := seed.Importance
		if !gumshoe.ValidImportance(importance) {
			importance = placement.SuggestedImportance
		}
		description := seed.Description
		if description == "" {
			description = fmt.Sprintf("Look around %s for details.", placement.POI.Name)
		}

		evidence[i] = gumshoe.Evidence{
			ID:               fmt.Sprintf("evidence_%d", i+1),
			Name:             seed.Name,
			Description:      description,
			Importance:       importance,
			Location:         placement.POI.Location,
			POIName:          placement.POI.Name,
			POICategory:      placement.POI.Category,
			DiscoveryRadiusM: geo.DefaultBaseRadiusM,
		}
	}
	return evidence
}
