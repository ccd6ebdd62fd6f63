package deduction

import (
	"strings"
	"testing"
	"time"

	"github.com/mystreets/gumshoe/internal/gumshoe"
)

func testScenario() gumshoe.Scenario {
	return gumshoe.Scenario{
		Title:   "The Clockmaker's Silence",
		Culprit: "Elena Vasquez",
		Suspects: []gumshoe.Suspect{
			{Name: "Elena Vasquez", Alibi: "Closing up the shop alone."},
			{Name: "Marcus Webb", Alibi: "At the harbor with two dockhands."},
			{Name: "Priya Nair", Alibi: "On a video call until midnight."},
		},
	}
}

func TestJudge(t *testing.T) {
	sc := testScenario()

	tests := []struct {
		accused string
		want    bool
	}{
		{"Elena Vasquez", true},
		{"elena vasquez", true},
		{"  ELENA VASQUEZ  ", true},
		{"Marcus Webb", false},
		{"Elena", false},
		{"somebody else entirely", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Judge(sc, tt.accused); got != tt.want {
			t.Errorf("Judge(%q) = %v, want %v", tt.accused, got, tt.want)
		}
	}
}

func completedSession(found, total int, d gumshoe.Difficulty) *gumshoe.GameSession {
	s := &gumshoe.GameSession{
		Difficulty: d,
		Scenario:   testScenario(),
		CreatedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	for i := 0; i < total; i++ {
		s.Evidence = append(s.Evidence, gumshoe.Evidence{Discovered: i < found})
	}
	return s
}

func TestScoreGame(t *testing.T) {
	// All evidence, correct verdict, finished in 4 minutes, no hints:
	// 50 + 50 base, (600-240)/60*2 = 12 time bonus, x1.2 normal = 134.
	s := completedSession(5, 5, gumshoe.DifficultyNormal)
	now := s.CreatedAt.Add(4 * time.Minute)

	got := ScoreGame(s, true, now)
	if got.Total != 134 {
		t.Errorf("total = %d, want 134", got.Total)
	}
	if got.TimeBonus != 12 {
		t.Errorf("time bonus = %d, want 12", got.TimeBonus)
	}
	if got.EvidencePoints != 50 || got.DeductionPoints != 50 {
		t.Errorf("points = %d/%d, want 50/50", got.EvidencePoints, got.DeductionPoints)
	}
}

func TestScoreGamePenaltiesAndFloor(t *testing.T) {
	s := completedSession(1, 5, gumshoe.DifficultyEasy)
	s.HintPenalty = 350
	now := s.CreatedAt.Add(30 * time.Minute)

	got := ScoreGame(s, false, now)
	if got.Total != 0 {
		t.Errorf("total = %d, want floor at 0", got.Total)
	}
	if got.TimeBonus != 0 {
		t.Errorf("time bonus after 30m = %d, want 0", got.TimeBonus)
	}
}

func TestScoreGameDiscoveryBonusCounts(t *testing.T) {
	s := completedSession(5, 5, gumshoe.DifficultyEasy)
	s.DiscoveryBonus = 75
	now := s.CreatedAt.Add(20 * time.Minute)

	got := ScoreGame(s, true, now)
	// 50 + 50 + 75 with no time bonus at easy multiplier.
	if got.Total != 175 {
		t.Errorf("total = %d, want 175", got.Total)
	}
}

func TestFallbackReactions(t *testing.T) {
	sc := testScenario()

	correct := FallbackReactions(sc, "Elena Vasquez", true)
	if len(correct) == 0 || correct[0].Kind != "confession" {
		t.Fatalf("expected a confession first, got %+v", correct)
	}
	if correct[0].CharacterName != sc.Culprit {
		t.Errorf("confession from %q, want culprit", correct[0].CharacterName)
	}

	wrong := FallbackReactions(sc, "Marcus Webb", false)
	if len(wrong) < 2 {
		t.Fatalf("expected accused and culprit reactions, got %+v", wrong)
	}
	if wrong[0].CharacterName != "Marcus Webb" || wrong[0].Kind != "denial" {
		t.Errorf("expected the accused to protest, got %+v", wrong[0])
	}
}

func TestHintLadder(t *testing.T) {
	s := completedSession(1, 5, gumshoe.DifficultyNormal)

	h1, ok := HintForLevel(s, 1)
	if !ok || h1.Penalty != 50 {
		t.Fatalf("level 1: %+v ok=%v", h1, ok)
	}
	if !strings.Contains(h1.Text, "evidence") {
		t.Errorf("with 1/5 found the light hint should push evidence work, got %q", h1.Text)
	}

	h2, ok := HintForLevel(s, 2)
	if !ok || h2.Penalty != 100 {
		t.Fatalf("level 2: %+v ok=%v", h2, ok)
	}
	if !strings.Contains(h2.Text, "3 suspects") {
		t.Errorf("key hint should count suspects, got %q", h2.Text)
	}

	h3, ok := HintForLevel(s, 3)
	if !ok || h3.Penalty != 200 {
		t.Fatalf("level 3: %+v ok=%v", h3, ok)
	}
	if !strings.Contains(h3.Text, `"E"`) {
		t.Errorf("decisive hint should reveal the initial, got %q", h3.Text)
	}

	if _, ok := HintForLevel(s, 4); ok {
		t.Error("level 4 should not exist")
	}
	if _, ok := HintForLevel(s, 0); ok {
		t.Error("level 0 should not exist")
	}
}
