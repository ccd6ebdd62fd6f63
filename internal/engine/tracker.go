package engine

import (
	"sync"

	"github.com/mystreets/gumshoe/internal/gumshoe"
)

// Readings older than the window add nothing to the movement heuristics.
const trackerDepth = 10

// Tracker keeps each player's most recent GPS readings in memory. It feeds
// the movement checks during evidence discovery and the live tracking
// stream. Losing it on restart is fine: the heuristics degrade to
// accuracy-only until readings flow again.
type Tracker struct {
	mu       sync.Mutex
	byPlayer map[string][]gumshoe.GPSReading
}

func NewTracker() *Tracker {
	return &Tracker{byPlayer: make(map[string][]gumshoe.GPSReading)}
}

// Record appends a reading, keeping the newest trackerDepth per player.
func (t *Tracker) Record(playerID string, r gumshoe.GPSReading) {
	t.mu.Lock()
	defer t.mu.Unlock()

	readings := append(t.byPlayer[playerID], r)
	if len(readings) > trackerDepth {
		readings = readings[len(readings)-trackerDepth:]
	}
	t.byPlayer[playerID] = readings
}

// Last returns the most recent reading for the player, if any.
func (t *Tracker) Last(playerID string) (gumshoe.GPSReading, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	readings := t.byPlayer[playerID]
	if len(readings) == 0 {
		return gumshoe.GPSReading{}, false
	}
	return readings[len(readings)-1], true
}

// Recent returns up to trackerDepth readings, oldest first.
func (t *Tracker) Recent(playerID string) []gumshoe.GPSReading {
	t.mu.Lock()
	defer t.mu.Unlock()

	readings := t.byPlayer[playerID]
	out := make([]gumshoe.GPSReading, len(readings))
	copy(out, readings)
	return out
}
