package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/mystreets/gumshoe/internal/genai"
	"github.com/mystreets/gumshoe/internal/gumshoe"
)

type InterrogateRequest struct {
	GameID       string
	PlayerID     string
	SuspectName  string
	QuestionKind string
	// Question overrides the canned text for QuestionKind when set.
	Question string
}

// InterrogateResult is one question-and-answer exchange. Whether the suspect
// was lying stays on the server; the player is supposed to work that out.
type InterrogateResult struct {
	SuspectName        string
	Question           string
	Answer             string
	Reaction           string
	QuestionsAsked     int
	QuestionsRemaining int
}

// InterrogateSuspect puts one question to a suspect. The question is consumed
// under the game lock before any answer is generated; a failed generation
// still costs the question and gets a canned answer built from the suspect's
// alibi, so the budget cannot be probed by forcing errors.
func (e *Engine) InterrogateSuspect(ctx context.Context, req InterrogateRequest) (*InterrogateResult, error) {
	store, err := e.store(ctx)
	if err != nil {
		return nil, err
	}
	sess, suspect, question, err := e.askQuestion(ctx, store, req)
	if err != nil {
		return nil, err
	}

	ans := e.suspectAnswer(ctx, sess.Scenario, suspect, question)
	e.logger.Debug("suspect answered",
		"game_id", sess.ID,
		"suspect", suspect.Name,
		"lying", ans.Lying)

	return &InterrogateResult{
		SuspectName:        suspect.Name,
		Question:           question,
		Answer:             ans.Answer,
		Reaction:           ans.Reaction,
		QuestionsAsked:     sess.QuestionsAsked,
		QuestionsRemaining: maxQuestions - sess.QuestionsAsked,
	}, nil
}

// askQuestion holds the game lock while the question budget is checked and
// consumed. Answer generation happens after, from the returned snapshot.
func (e *Engine) askQuestion(ctx context.Context, store SessionStore, req InterrogateRequest) (*gumshoe.GameSession, gumshoe.Suspect, string, error) {
	unlock := e.locks.lock(req.GameID)
	defer unlock()

	sess, err := loadOwned(ctx, store, req.GameID, req.PlayerID)
	if err != nil {
		return nil, gumshoe.Suspect{}, "", err
	}
	suspect, ok := sess.Scenario.SuspectNamed(req.SuspectName)
	if !ok {
		return nil, gumshoe.Suspect{}, "", fmt.Errorf("%w: suspect %q", gumshoe.ErrNotFound, req.SuspectName)
	}
	if sess.QuestionsAsked >= maxQuestions {
		return nil, gumshoe.Suspect{}, "", fmt.Errorf("%w: %d questions asked", gumshoe.ErrQuestionLimit, sess.QuestionsAsked)
	}

	question := buildQuestion(req.QuestionKind, req.Question)
	sess.QuestionsAsked++
	sess.UpdatedAt = e.now().UTC()
	if err := store.Save(ctx, sess); err != nil {
		return nil, gumshoe.Suspect{}, "", err
	}
	return sess, suspect, question, nil
}

func (e *Engine) suspectAnswer(ctx context.Context, sc gumshoe.Scenario, suspect gumshoe.Suspect, question string) genai.SuspectAnswer {
	gen, err := e.generator(ctx)
	if err == nil {
		ans, genErr := gen.InterrogationAnswer(ctx, sc, suspect, question)
		if genErr == nil {
			return ans
		}
		err = genErr
	}
	e.logger.Warn("answer generation failed, falling back to alibi",
		"suspect", suspect.Name,
		"error", err)

	answer := suspect.Alibi
	if answer == "" {
		answer = "I have nothing more to tell you."
	}
	return genai.SuspectAnswer{
		Answer:   answer,
		Reaction: "looks a little troubled",
		Lying:    strings.EqualFold(strings.TrimSpace(suspect.Name), strings.TrimSpace(sc.Culprit)),
	}
}

func buildQuestion(kind, custom string) string {
	if q := strings.TrimSpace(custom); q != "" {
		return q
	}
	switch kind {
	case "alibi":
		return "Where were you when it happened, and what were you doing?"
	case "motive":
		return "Tell me about the victim. Was there any trouble between you?"
	case "relationship":
		return "How did you know the victim?"
	case "witness":
		return "Did you notice anything odd about anyone else that day?"
	case "behavior":
		return "Walk me through your movements that day."
	}
	return "Tell me anything you know."
}
