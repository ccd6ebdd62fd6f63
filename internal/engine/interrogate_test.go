package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/mystreets/gumshoe/internal/gumshoe"
)

func TestInterrogateSuspect(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))

	res, err := te.InterrogateSuspect(context.Background(), InterrogateRequest{
		GameID:       "g1",
		PlayerID:     "p1",
		SuspectName:  "felix marsh",
		QuestionKind: "alibi",
	})
	if err != nil {
		t.Fatalf("InterrogateSuspect: %v", err)
	}
	if res.SuspectName != "Felix Marsh" {
		t.Errorf("suspect = %q, want the canonical name", res.SuspectName)
	}
	if res.Question != "Where were you when it happened, and what were you doing?" {
		t.Errorf("question = %q, want the alibi template", res.Question)
	}
	if res.Answer != "I told you, I was out walking." || res.Reaction != "shrugs" {
		t.Errorf("answer = %q / %q, want the generated exchange", res.Answer, res.Reaction)
	}
	if res.QuestionsAsked != 1 || res.QuestionsRemaining != maxQuestions-1 {
		t.Errorf("budget = %d asked / %d remaining", res.QuestionsAsked, res.QuestionsRemaining)
	}
	if got := te.store.get(t, "g1").QuestionsAsked; got != 1 {
		t.Errorf("stored questionsAsked = %d, want 1", got)
	}
}

func TestInterrogateCustomQuestion(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))

	res, err := te.InterrogateSuspect(context.Background(), InterrogateRequest{
		GameID:      "g1",
		PlayerID:    "p1",
		SuspectName: "Iris Vane",
		Question:    "Who profits if the parcel never arrives?",
	})
	if err != nil {
		t.Fatalf("InterrogateSuspect: %v", err)
	}
	if res.Question != "Who profits if the parcel never arrives?" {
		t.Errorf("question = %q, want the custom text", res.Question)
	}
}

func TestInterrogateUnknownSuspect(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))

	_, err := te.InterrogateSuspect(context.Background(), InterrogateRequest{
		GameID:      "g1",
		PlayerID:    "p1",
		SuspectName: "Inspector Nobody",
	})
	if !errors.Is(err, gumshoe.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got := te.store.get(t, "g1").QuestionsAsked; got != 0 {
		t.Errorf("questionsAsked = %d, a rejected question must not be consumed", got)
	}
}

func TestInterrogateQuestionLimit(t *testing.T) {
	te := newTestEngine(t)
	sess := testSession("g1", "p1")
	sess.QuestionsAsked = maxQuestions - 1
	seedSession(t, te, sess)
	ctx := context.Background()
	req := InterrogateRequest{GameID: "g1", PlayerID: "p1", SuspectName: "Nora Petty", QuestionKind: "witness"}

	res, err := te.InterrogateSuspect(ctx, req)
	if err != nil {
		t.Fatalf("last question: %v", err)
	}
	if res.QuestionsRemaining != 0 {
		t.Errorf("remaining = %d, want 0", res.QuestionsRemaining)
	}

	if _, err := te.InterrogateSuspect(ctx, req); !errors.Is(err, gumshoe.ErrQuestionLimit) {
		t.Fatalf("err = %v, want ErrQuestionLimit", err)
	}
}

func TestInterrogateFallbackAnswer(t *testing.T) {
	te := newTestEngine(t)
	te.gen.answerErr = errors.New("model unavailable")
	seedSession(t, te, testSession("g1", "p1"))

	res, err := te.InterrogateSuspect(context.Background(), InterrogateRequest{
		GameID:       "g1",
		PlayerID:     "p1",
		SuspectName:  "Felix Marsh",
		QuestionKind: "alibi",
	})
	if err != nil {
		t.Fatalf("InterrogateSuspect: %v", err)
	}
	if res.Answer != "Walking my dog by the canal." {
		t.Errorf("answer = %q, want the suspect's alibi", res.Answer)
	}
	if res.Reaction != "looks a little troubled" {
		t.Errorf("reaction = %q", res.Reaction)
	}
	// The question is consumed even when generation fails.
	if got := te.store.get(t, "g1").QuestionsAsked; got != 1 {
		t.Errorf("stored questionsAsked = %d, want 1", got)
	}
}

func TestInterrogateGuards(t *testing.T) {
	te := newTestEngine(t)
	seedSession(t, te, testSession("g1", "p1"))
	completed := testSession("done", "p1")
	completed.Status = gumshoe.StatusCompleted
	seedSession(t, te, completed)

	if _, err := te.InterrogateSuspect(context.Background(), InterrogateRequest{
		GameID: "g1", PlayerID: "intruder", SuspectName: "Iris Vane",
	}); !errors.Is(err, gumshoe.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, err := te.InterrogateSuspect(context.Background(), InterrogateRequest{
		GameID: "done", PlayerID: "p1", SuspectName: "Iris Vane",
	}); !errors.Is(err, gumshoe.ErrAlreadyCompleted) {
		t.Fatalf("err = %v, want ErrAlreadyCompleted", err)
	}
}
