package gumshoe

import "errors"

// Sentinel errors returned across the engine boundary. Callers match them
// with errors.Is; collaborator packages wrap their own failures into the
// matching kind. Being too far from an evidence target is not an error, it
// is a normal negative DiscoveryResult.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("player does not own this game")
	ErrAlreadyCompleted   = errors.New("game already completed")
	ErrAlreadyDiscovered  = errors.New("evidence already discovered")
	ErrTooManyActiveGames = errors.New("active game limit reached")
	ErrQuestionLimit      = errors.New("interrogation question limit reached")
	ErrHintLevel          = errors.New("hint level out of range")
	ErrScenarioGeneration = errors.New("scenario generation failed")
	ErrPlacement          = errors.New("not enough points of interest nearby")
	ErrExternalTimeout    = errors.New("external service timed out")
	ErrStoreUnavailable   = errors.New("session store unavailable")
)
