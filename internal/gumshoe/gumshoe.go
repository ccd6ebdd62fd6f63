// Package gumshoe defines the core domain types for the street mystery game.
// It has zero external dependencies; everything here is pure Go.
package gumshoe

import (
	"strings"
	"time"
)

// Location is a WGS-84 coordinate pair.
type Location struct {
	Lat float64
	Lng float64
}

// GPSReading is a raw device fix: a location, its reported horizontal
// accuracy radius in meters, and when the device captured it. Readings are
// validation input only and are never persisted with the session.
type GPSReading struct {
	Location   Location
	AccuracyM  float64
	CapturedAt time.Time
}

// POI is a real-world place an evidence item can be pinned to.
type POI struct {
	Name     string
	Category string
	Location Location
}

// Placement is a candidate evidence site returned by a placement source.
type Placement struct {
	POI                 POI
	SuggestedImportance Importance
}

type Importance string

const (
	ImportanceCritical   Importance = "critical"
	ImportanceImportant  Importance = "important"
	ImportanceMisleading Importance = "misleading"
	ImportanceBackground Importance = "background"
)

// ValidImportance reports whether s is one of the known importance classes.
func ValidImportance(s Importance) bool {
	switch s {
	case ImportanceCritical, ImportanceImportant, ImportanceMisleading, ImportanceBackground:
		return true
	}
	return false
}

// Evidence is a discoverable clue bound to a POI. It is owned by exactly one
// GameSession and created once at session start. The Discovered flag is
// monotonic: it never reverts to false.
type Evidence struct {
	ID               string
	Name             string
	Description      string
	Importance       Importance
	Location         Location
	POIName          string
	POICategory      string
	DiscoveryRadiusM float64
	Discovered       bool
	DiscoveredAt     *time.Time
}

type Victim struct {
	Name        string
	Description string
}

type Suspect struct {
	Name        string
	Description string
	Alibi       string
	Motive      string
}

// Scenario is the generated mystery attached to a session. Immutable once
// attached; Culprit is always the name of one of the Suspects.
type Scenario struct {
	Title    string
	Setting  string
	Victim   Victim
	Suspects []Suspect
	Culprit  string
}

// SuspectNamed returns the suspect whose name matches, ignoring case and
// surrounding whitespace.
func (s Scenario) SuspectNamed(name string) (Suspect, bool) {
	name = strings.TrimSpace(name)
	for _, su := range s.Suspects {
		if strings.EqualFold(strings.TrimSpace(su.Name), name) {
			return su, true
		}
	}
	return Suspect{}, false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty validates a client-supplied difficulty string.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return d, true
	}
	return "", false
}

// EvidenceCount is the number of evidence items generated for a game.
func (d Difficulty) EvidenceCount() int {
	switch d {
	case DifficultyEasy:
		return 3
	case DifficultyHard:
		return 7
	default:
		return 5
	}
}

// SuspectRange is the allowed suspect count for a generated scenario.
func (d Difficulty) SuspectRange() (min, max int) {
	switch d {
	case DifficultyEasy:
		return 3, 4
	case DifficultyHard:
		return 6, 8
	default:
		return 4, 6
	}
}

// ScoreMultiplier scales the final score by difficulty.
func (d Difficulty) ScoreMultiplier() float64 {
	switch d {
	case DifficultyNormal:
		return 1.2
	case DifficultyHard:
		return 1.5
	default:
		return 1.0
	}
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// DeductionAttempt records the player's final accusation. It is written once,
// as part of completing the session.
type DeductionAttempt struct {
	SuspectName string
	Reasoning   string
	Correct     bool
	SubmittedAt time.Time
}

// GameSession is the aggregate root of a single playthrough. Only the game
// engine mutates it; a session transitions active -> completed exactly once.
type GameSession struct {
	ID             string
	PlayerID       string
	Difficulty     Difficulty
	Status         Status
	Scenario       Scenario
	Evidence       []Evidence
	StartLocation  Location
	DiscoveryBonus int
	HintPenalty    int
	HintsUsed      int
	QuestionsAsked int
	Score          int
	Deduction      *DeductionAttempt
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// FindEvidence returns a pointer into the session's evidence slice, or nil
// when the id is unknown.
func (g *GameSession) FindEvidence(id string) *Evidence {
	for i := range g.Evidence {
		if g.Evidence[i].ID == id {
			return &g.Evidence[i]
		}
	}
	return nil
}

// DiscoveredCount counts evidence already found.
func (g *GameSession) DiscoveredCount() int {
	n := 0
	for _, ev := range g.Evidence {
		if ev.Discovered {
			n++
		}
	}
	return n
}

// AllDiscovered reports whether every evidence item has been found.
func (g *GameSession) AllDiscovered() bool {
	return g.DiscoveredCount() == len(g.Evidence)
}

// Remaining returns the undiscovered evidence in generation order.
func (g *GameSession) Remaining() []Evidence {
	var out []Evidence
	for _, ev := range g.Evidence {
		if !ev.Discovered {
			out = append(out, ev)
		}
	}
	return out
}

// Reaction is one character's response to the final accusation. Kind is one
// of confession, denial, surprise, praise.
type Reaction struct {
	CharacterName string
	Text          string
	Kind          string
}

// HistoryEntry is the record appended when a game completes.
type HistoryEntry struct {
	GameID       string
	PlayerID     string
	Title        string
	Difficulty   Difficulty
	Score        int
	Correct      bool
	EvidenceRate float64
	DurationSec  int
	CompletedAt  time.Time
}
