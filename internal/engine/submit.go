package engine

import (
	"context"

	"github.com/mystreets/gumshoe/internal/deduction"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

type DeductionRequest struct {
	GameID      string
	PlayerID    string
	SuspectName string
	Reasoning   string
}

// DeductionResult is the ending: the verdict, the revealed culprit, the score
// breakdown, and how the characters take the accusation.
type DeductionResult struct {
	Correct   bool
	Accused   string
	Culprit   string
	Score     deduction.Score
	Reactions []gumshoe.Reaction
	Session   *gumshoe.GameSession
}

// SubmitDeduction judges the accusation, scores and completes the session.
// The state transition is persisted before any dialogue generation, so a
// slow or failing text service can never block or undo the ending. Reaction
// text falls back to canned lines when generation fails.
func (e *Engine) SubmitDeduction(ctx context.Context, req DeductionRequest) (*DeductionResult, error) {
	store, err := e.store(ctx)
	if err != nil {
		return nil, err
	}
	sess, score, err := e.completeSession(ctx, store, req)
	if err != nil {
		return nil, err
	}
	correct := sess.Deduction.Correct

	entry := gumshoe.HistoryEntry{
		GameID:      sess.ID,
		PlayerID:    sess.PlayerID,
		Title:       sess.Scenario.Title,
		Difficulty:  sess.Difficulty,
		Score:       sess.Score,
		Correct:     correct,
		CompletedAt: *sess.CompletedAt,
		DurationSec: int(sess.CompletedAt.Sub(sess.CreatedAt).Seconds()),
	}
	if len(sess.Evidence) > 0 {
		entry.EvidenceRate = float64(sess.DiscoveredCount()) / float64(len(sess.Evidence))
	}
	// The game is already over; losing the history row is not worth failing
	// the response for.
	if err := store.AppendHistory(ctx, entry); err != nil {
		e.logger.Warn("history append failed", "game_id", sess.ID, "error", err)
	}

	reactions := e.endingReactions(ctx, sess.Scenario, req.SuspectName, correct)

	e.logger.Info("deduction submitted",
		"game_id", sess.ID,
		"player_id", sess.PlayerID,
		"accused", req.SuspectName,
		"correct", correct,
		"score", sess.Score)
	return &DeductionResult{
		Correct:   correct,
		Accused:   req.SuspectName,
		Culprit:   sess.Scenario.Culprit,
		Score:     score,
		Reactions: reactions,
		Session:   sess,
	}, nil
}

// completeSession holds the game lock for the judge-score-persist section and
// returns the completed session. Everything after it works from the snapshot.
func (e *Engine) completeSession(ctx context.Context, store SessionStore, req DeductionRequest) (*gumshoe.GameSession, deduction.Score, error) {
	unlock := e.locks.lock(req.GameID)
	defer unlock()

	sess, err := loadOwned(ctx, store, req.GameID, req.PlayerID)
	if err != nil {
		return nil, deduction.Score{}, err
	}

	now := e.now().UTC()
	correct := deduction.Judge(sess.Scenario, req.SuspectName)
	sess.Deduction = &gumshoe.DeductionAttempt{
		SuspectName: req.SuspectName,
		Reasoning:   req.Reasoning,
		Correct:     correct,
		SubmittedAt: now,
	}
	score := deduction.ScoreGame(sess, correct, now)
	sess.Score = score.Total
	sess.Status = gumshoe.StatusCompleted
	sess.CompletedAt = &now
	sess.UpdatedAt = now
	if err := store.Save(ctx, sess); err != nil {
		return nil, deduction.Score{}, err
	}
	return sess, score, nil
}

func (e *Engine) endingReactions(ctx context.Context, sc gumshoe.Scenario, accused string, correct bool) []gumshoe.Reaction {
	gen, err := e.generator(ctx)
	if err != nil {
		return deduction.FallbackReactions(sc, accused, correct)
	}
	reactions, err := gen.Reactions(ctx, sc, accused, correct)
	if err != nil {
		e.logger.Warn("reaction generation failed, using canned lines", "error", err)
		return deduction.FallbackReactions(sc, accused, correct)
	}
	if len(reactions) == 0 {
		return deduction.FallbackReactions(sc, accused, correct)
	}
	return reactions
}
