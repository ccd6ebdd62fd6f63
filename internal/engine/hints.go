package engine

import (
	"context"
	"fmt"

	"github.com/mystreets/gumshoe/internal/deduction"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

const evidenceHintPenalty = 5

type HintRequest struct {
	GameID   string
	PlayerID string
	Level    int
}

// HintResult is a purchased deduction hint and the running cost of all hints
// taken so far in this game.
type HintResult struct {
	Hint          deduction.Hint
	HintsUsed     int
	TotalPenalty  int
	NextAvailable bool
}

// RequestHint buys a hint from the graded ladder and records its penalty on
// the session. Asking twice for the same level costs twice; the ladder does
// not remember what was already bought.
func (e *Engine) RequestHint(ctx context.Context, req HintRequest) (*HintResult, error) {
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
	hint, ok := deduction.HintForLevel(sess, req.Level)
	if !ok {
		return nil, fmt.Errorf("%w: %d", gumshoe.ErrHintLevel, req.Level)
	}

	sess.HintPenalty += hint.Penalty
	sess.HintsUsed++
	sess.UpdatedAt = e.now().UTC()
	if err := store.Save(ctx, sess); err != nil {
		return nil, err
	}

	e.logger.Info("hint requested",
		"game_id", sess.ID,
		"level", hint.Level,
		"penalty", hint.Penalty,
		"total_penalty", sess.HintPenalty)
	return &HintResult{
		Hint:          hint,
		HintsUsed:     sess.HintsUsed,
		TotalPenalty:  sess.HintPenalty,
		NextAvailable: req.Level < deduction.MaxHintLevel,
	}, nil
}

// EvidenceHintResult is a nudge toward one undiscovered clue's whereabouts.
type EvidenceHintResult struct {
	EvidenceID   string
	Hint         string
	Discovered   bool
	Penalty      int
	TotalPenalty int
}

// EvidenceHint names the POI an undiscovered evidence sits at, with a small
// score penalty. Asking about evidence already found costs nothing.
func (e *Engine) EvidenceHint(ctx context.Context, gameID, playerID, evidenceID string) (*EvidenceHintResult, error) {
	store, err := e.store(ctx)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock(gameID)
	defer unlock()

	sess, err := loadOwned(ctx, store, gameID, playerID)
	if err != nil {
		return nil, err
	}
	ev := sess.FindEvidence(evidenceID)
	if ev == nil {
		return nil, fmt.Errorf("%w: evidence %q", gumshoe.ErrNotFound, evidenceID)
	}
	if ev.Discovered {
		return &EvidenceHintResult{
			EvidenceID:   ev.ID,
			Hint:         "You already found this one.",
			Discovered:   true,
			TotalPenalty: sess.HintPenalty,
		}, nil
	}

	sess.HintPenalty += evidenceHintPenalty
	sess.HintsUsed++
	sess.UpdatedAt = e.now().UTC()
	if err := store.Save(ctx, sess); err != nil {
		return nil, err
	}

	hint := fmt.Sprintf("Try looking around %s.", ev.POIName)
	if flavor := categoryFlavor(ev.POICategory); flavor != "" {
		hint += " " + flavor
	}
	return &EvidenceHintResult{
		EvidenceID:   ev.ID,
		Hint:         hint,
		Penalty:      evidenceHintPenalty,
		TotalPenalty: sess.HintPenalty,
	}, nil
}

func categoryFlavor(category string) string {
	switch category {
	case "park":
		return "Somewhere green, where people go to unwind."
	case "landmark":
		return "A spot this neighborhood is known for."
	case "cafe":
		return "Follow the smell of coffee."
	case "restaurant":
		return "Somewhere that serves a good meal."
	case "station":
		return "A busy place people pass through all day."
	}
	return ""
}
