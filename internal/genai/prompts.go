package genai

import (
	"fmt"
	"strings"

	"github.com/mystreets/gumshoe/internal/gumshoe"
)

func scenarioPrompt(req ScenarioRequest, minSuspects, maxSuspects int) string {
	var b strings.Builder
	b.WriteString("You are a mystery writer for a GPS street game. Invent a self-contained case that players solve by walking the neighborhood and collecting evidence.\n\n")
	fmt.Fprintf(&b, "Area: %s\n", req.Locality)
	if len(req.POINames) > 0 {
		fmt.Fprintf(&b, "Nearby places: %s\n", strings.Join(req.POINames, ", "))
	}
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "Suspects: between %d and %d. Exactly one is the culprit, and the culprit field must repeat that suspect's name exactly.\n", minSuspects, maxSuspects)
	b.WriteString(`
Respond with JSON only, in this shape:
{
  "title": "case title",
  "setting": "dramatic opening, 2-4 sentences",
  "victim": {"name": "...", "description": "..."},
  "suspects": [
    {"name": "...", "description": "...", "alibi": "...", "motive": "..."}
  ],
  "culprit": "name of the guilty suspect"
}
Give innocent suspects thin motives and the culprit a real one. Every suspect needs an alibi; the culprit's should contain a subtle contradiction.`)
	return b.String()
}

func evidencePrompt(sc gumshoe.Scenario, placements []gumshoe.Placement, count int) string {
	names := make([]string, len(placements))
	for i, p := range placements {
		names[i] = p.POI.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write %d physical clues for the mystery %q. The culprit is %s; their motive: %s.\n",
		count, sc.Title, sc.Culprit, culpritMotive(sc))
	fmt.Fprintf(&b, "Available places, one clue per place: %s\n", strings.Join(names, ", "))
	b.WriteString("Balance the set: one critical clue, two or three important, one or two misleading, the rest background color.\n")
	b.WriteString(`
Respond with JSON only:
{
  "evidence": [
    {"name": "...", "description": "what the player finds and what it hints at", "importance": "critical|important|misleading|background", "poi_name": "one of the available places"}
  ]
}`)
	return b.String()
}

func culpritMotive(sc gumshoe.Scenario) string {
	if s, ok := sc.SuspectNamed(sc.Culprit); ok && s.Motive != "" {
		return s.Motive
	}
	return "unknown"
}

func reactionsPrompt(sc gumshoe.Scenario, accused string, correct bool) string {
	verdict := "wrong"
	if correct {
		verdict = "right"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write the closing scene of the mystery %q. The player accused %s, which is %s. The real culprit is %s.\n\n",
		sc.Title, accused, verdict, sc.Culprit)
	b.WriteString("Characters:\n")
	for _, s := range sc.Suspects {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
	}
	b.WriteString(`
Give each character a short spoken reaction to the accusation.
Respond with JSON only:
{
  "reactions": [
    {"character_name": "...", "reaction": "one or two sentences, in character", "reaction_type": "confession|denial|surprise|praise"}
  ]
}
If the accusation is right the culprit confesses; if it is wrong the culprit quietly denies and the wrongly accused protests.`)
	return b.String()
}

func interrogationPrompt(sc gumshoe.Scenario, suspect gumshoe.Suspect, question string) string {
	role := "You are innocent: answer honestly, with natural emotion."
	if name, ok := sc.SuspectNamed(sc.Culprit); ok && name.Name == suspect.Name {
		role = "You are the culprit: lie smoothly, but let one small inconsistency slip."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Answer in character as %s, a suspect in the mystery %q.\n", suspect.Name, sc.Title)
	fmt.Fprintf(&b, "About you: %s\nYour alibi: %s\nYour stated motive: %s\n", suspect.Description, suspect.Alibi, suspect.Motive)
	fmt.Fprintf(&b, "%s\n\n", role)
	fmt.Fprintf(&b, "The detective asks: %q\n", question)
	b.WriteString(`
Respond with JSON only:
{
  "answer": "your reply, 2-4 sentences, first person",
  "reaction": "one short line describing your demeanor",
  "is_lying": true or false
}`)
	return b.String()
}
