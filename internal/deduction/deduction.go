// Package deduction implements the verdict on the player's final accusation,
// the game score, and the graded hint ladder. Everything here is a pure
// function of the session; no I/O.
package deduction

import (
	"fmt"
	"strings"
	"time"

	"github.com/mystreets/gumshoe/internal/gumshoe"
)

// Judge reports whether the accused suspect is the scenario's culprit.
// Matching is case-insensitive after trimming whitespace; nothing fuzzier.
// A name that is not among the suspects is still judged, it is simply wrong.
func Judge(scenario gumshoe.Scenario, suspectName string) bool {
	return strings.EqualFold(
		strings.TrimSpace(suspectName),
		strings.TrimSpace(scenario.Culprit),
	)
}

// Score is the final tally with its components, for client display.
type Score struct {
	EvidenceFound   int
	TotalEvidence   int
	EvidencePoints  int
	DeductionPoints int
	DiscoveryBonus  int
	TimeBonus       int
	HintPenalty     int
	Multiplier      float64
	Total           int
}

// ScoreGame computes the final score for a session being completed at now.
// Evidence coverage is worth up to 50 points and a correct verdict another 50;
// bonuses collected at discovery time and a time bonus (full inside ten
// minutes, fading by the minute) are added, hint penalties subtracted, and
// the sum scaled by difficulty. Never negative.
func ScoreGame(s *gumshoe.GameSession, correct bool, now time.Time) Score {
	sc := Score{
		EvidenceFound:  s.DiscoveredCount(),
		TotalEvidence:  len(s.Evidence),
		DiscoveryBonus: s.DiscoveryBonus,
		HintPenalty:    s.HintPenalty,
		Multiplier:     s.Difficulty.ScoreMultiplier(),
	}
	if sc.TotalEvidence > 0 {
		sc.EvidencePoints = int(float64(sc.EvidenceFound) / float64(sc.TotalEvidence) * 50)
	}
	if correct {
		sc.DeductionPoints = 50
	}

	elapsed := int(now.Sub(s.CreatedAt).Seconds())
	if elapsed < 600 {
		sc.TimeBonus = (600 - elapsed) / 60 * 2
	}

	base := sc.EvidencePoints + sc.DeductionPoints + sc.DiscoveryBonus
	sc.Total = int(float64(base+sc.TimeBonus-sc.HintPenalty) * sc.Multiplier)
	if sc.Total < 0 {
		sc.Total = 0
	}
	return sc
}

// FallbackReactions builds deterministic character reactions for the ending
// scene when generated dialogue is unavailable. The culprit confesses or
// deflects depending on the verdict; a wrongly accused suspect protests.
func FallbackReactions(scenario gumshoe.Scenario, accused string, correct bool) []gumshoe.Reaction {
	var out []gumshoe.Reaction

	if correct {
		out = append(out, gumshoe.Reaction{
			CharacterName: scenario.Culprit,
			Text:          "...Yes. It was me. I suppose it was only a matter of time before someone worked it out.",
			Kind:          "confession",
		})
	} else {
		if su, ok := scenario.SuspectNamed(accused); ok {
			out = append(out, gumshoe.Reaction{
				CharacterName: su.Name,
				Text:          "Me? You can't be serious. I already told you where I was.",
				Kind:          "denial",
			})
		}
		out = append(out, gumshoe.Reaction{
			CharacterName: scenario.Culprit,
			Text:          "What a relief this is finally over.",
			Kind:          "denial",
		})
	}

	for _, su := range scenario.Suspects {
		if strings.EqualFold(su.Name, scenario.Culprit) || strings.EqualFold(su.Name, accused) {
			continue
		}
		out = append(out, gumshoe.Reaction{
			CharacterName: su.Name,
			Text:          "I can hardly believe it happened here, of all places.",
			Kind:          "surprise",
		})
		break
	}
	return out
}

// Hint penalties per level, subtracted from the final score.
const (
	lightHintPenalty    = 50
	keyHintPenalty      = 100
	decisiveHintPenalty = 200

	// MaxHintLevel is the deepest hint a player can buy.
	MaxHintLevel = 3
)

// Hint is a purchased clue and the score cost it carries.
type Hint struct {
	Level   int
	Text    string
	Penalty int
}

// HintForLevel produces the hint text for levels 1 to 3. Level 1 nudges toward
// evidence work, level 2 narrows the field, level 3 is close to a giveaway.
// Returns false for a level outside the ladder.
func HintForLevel(s *gumshoe.GameSession, level int) (Hint, bool) {
	switch level {
	case 1:
		text := "Review every suspect's alibi carefully before you accuse anyone."
		if s.DiscoveredCount() < 3 {
			text = "You are short on evidence. Track down more before drawing conclusions."
		}
		return Hint{Level: 1, Text: text, Penalty: lightHintPenalty}, true
	case 2:
		text := "One piece of evidence is decisive. Weigh what each clue actually proves."
		if n := len(s.Scenario.Suspects); n > 0 {
			text = fmt.Sprintf("There are %d suspects, and exactly one of them is lying about that day.", n)
		}
		return Hint{Level: 2, Text: text, Penalty: keyHintPenalty}, true
	case 3:
		initial := "?"
		if c := []rune(strings.TrimSpace(s.Scenario.Culprit)); len(c) > 0 {
			initial = strings.ToUpper(string(c[0]))
		}
		text := fmt.Sprintf("The culprit's name begins with %q, and the motive is a personal grudge.", initial)
		return Hint{Level: 3, Text: text, Penalty: decisiveHintPenalty}, true
	default:
		return Hint{}, false
	}
}
