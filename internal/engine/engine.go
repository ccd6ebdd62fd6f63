// Package engine runs the game: it starts sessions, validates evidence
// discovery against real GPS readings, judges deductions and keeps score.
// Collaborators are resolved lazily through the service registry so the
// process can boot and report health before any external dependency is
// touched.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mystreets/gumshoe/internal/genai"
	"github.com/mystreets/gumshoe/internal/geo"
	"github.com/mystreets/gumshoe/internal/gumshoe"
	"github.com/mystreets/gumshoe/internal/registry"
)

// Registry names for the lazily constructed collaborators.
const (
	ServiceStore  = "store"
	ServiceGenAI  = "genai"
	ServicePlaces = "places"
)

const (
	maxActiveGames = 3
	maxQuestions   = 10

	// How far around the start location to look for evidence spots.
	searchRadiusM = 500
)

// SessionStore persists sessions and completed-game history.
type SessionStore interface {
	Create(ctx context.Context, sess *gumshoe.GameSession) error
	Load(ctx context.Context, gameID string) (*gumshoe.GameSession, error)
	Save(ctx context.Context, sess *gumshoe.GameSession) error
	CountActive(ctx context.Context, playerID string) (int, error)
	AppendHistory(ctx context.Context, e gumshoe.HistoryEntry) error
	ListHistory(ctx context.Context, playerID string, limit int) ([]gumshoe.HistoryEntry, error)
}

// ScenarioGenerator writes cases, clues and character dialogue.
type ScenarioGenerator interface {
	GenerateScenario(ctx context.Context, req genai.ScenarioRequest) (gumshoe.Scenario, error)
	GenerateEvidence(ctx context.Context, sc gumshoe.Scenario, placements []gumshoe.Placement, count int) ([]genai.EvidenceSeed, error)
	Reactions(ctx context.Context, sc gumshoe.Scenario, accused string, correct bool) ([]gumshoe.Reaction, error)
	InterrogationAnswer(ctx context.Context, sc gumshoe.Scenario, suspect gumshoe.Suspect, question string) (genai.SuspectAnswer, error)
}

// PlacementSource finds real-world spots to hide evidence at.
type PlacementSource interface {
	FindPlacements(ctx context.Context, center gumshoe.Location, count int, radiusM float64) ([]gumshoe.Placement, error)
}

type Engine struct {
	logger    *slog.Logger
	services  *registry.Manager
	validator geo.Validator
	tracker   *Tracker
	locks     keyedLocks

	// Swapped in tests for deterministic sessions.
	now   func() time.Time
	newID func() string
}

func New(logger *slog.Logger, services *registry.Manager) *Engine {
	return &Engine{
		logger:    logger,
		services:  services,
		validator: geo.NewValidator(),
		tracker:   NewTracker(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Tracker gives the spoof heuristics access to each player's recent readings.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Validator exposes the radius and movement rules, for endpoints that advise
// clients without touching game state.
func (e *Engine) Validator() geo.Validator {
	return e.validator
}

func (e *Engine) store(ctx context.Context) (SessionStore, error) {
	s, err := registry.Resolve[SessionStore](ctx, e.services, ServiceStore)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gumshoe.ErrStoreUnavailable, err)
	}
	return s, nil
}

func (e *Engine) generator(ctx context.Context) (ScenarioGenerator, error) {
	g, err := registry.Resolve[ScenarioGenerator](ctx, e.services, ServiceGenAI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gumshoe.ErrScenarioGeneration, err)
	}
	return g, nil
}

func (e *Engine) placements(ctx context.Context) (PlacementSource, error) {
	p, err := registry.Resolve[PlacementSource](ctx, e.services, ServicePlaces)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gumshoe.ErrPlacement, err)
	}
	return p, nil
}

// GetSession returns the session as stored. There is no ownership check;
// the view contains nothing the owning client has not already seen, and
// game IDs are unguessable.
func (e *Engine) GetSession(ctx context.Context, gameID string) (*gumshoe.GameSession, error) {
	store, err := e.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.Load(ctx, gameID)
}

// History lists the player's completed games, newest first.
func (e *Engine) History(ctx context.Context, playerID string, limit int) ([]gumshoe.HistoryEntry, error) {
	store, err := e.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.ListHistory(ctx, playerID, limit)
}

// keyedLocks serializes state transitions per game. The lock is held for
// read-validate-mutate-persist and never across calls to external services.
type keyedLocks struct {
	mutexes sync.Map
}

func (k *keyedLocks) lock(gameID string) func() {
	v, _ := k.mutexes.LoadOrStore(gameID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// loadOwned fetches a session and runs the checks every mutating operation
// shares. The caller must hold the game's lock.
func loadOwned(ctx context.Context, store SessionStore, gameID, playerID string) (*gumshoe.GameSession, error) {
	sess, err := store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if sess.PlayerID != playerID {
		return nil, gumshoe.ErrForbidden
	}
	if sess.Status != gumshoe.StatusActive {
		return nil, gumshoe.ErrAlreadyCompleted
	}
	return sess, nil
}
