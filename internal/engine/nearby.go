package engine

import (
	"context"
	"sort"

	"github.com/mystreets/gumshoe/internal/geo"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

// NearbyItem is an undiscovered evidence the player is standing close enough
// to claim right now.
type NearbyItem struct {
	EvidenceID       string
	Name             string
	POIName          string
	POICategory      string
	DistanceM        float64
	DiscoveryRadiusM float64
}

// NearbyEvidence lists undiscovered evidence whose discovery radius covers
// the given location, nearest first. Read-only, but owner-only: it confirms
// where clues are before the player has earned them.
func (e *Engine) NearbyEvidence(ctx context.Context, gameID, playerID string, loc gumshoe.Location) ([]NearbyItem, error) {
	store, err := e.store(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if sess.PlayerID != playerID {
		return nil, gumshoe.ErrForbidden
	}

	items := []NearbyItem{}
	for _, ev := range sess.Evidence {
		if ev.Discovered {
			continue
		}
		d := geo.Distance(loc, ev.Location)
		if d > ev.DiscoveryRadiusM {
			continue
		}
		items = append(items, NearbyItem{
			EvidenceID:       ev.ID,
			Name:             ev.Name,
			POIName:          ev.POIName,
			POICategory:      ev.POICategory,
			DistanceM:        d,
			DiscoveryRadiusM: ev.DiscoveryRadiusM,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DistanceM < items[j].DistanceM })
	return items, nil
}
