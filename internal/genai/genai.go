// Package genai calls the Gemini REST API to write case scenarios, place
// evidence, and voice the characters. All output is requested as JSON and
// validated before it reaches the game engine.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mystreets/gumshoe/internal/gumshoe"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client setup failures and malformed model output are retried once; the
// second failure is the caller's problem.
const maxAttempts = 2

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Client{cfg: cfg}, nil
}

// ScenarioRequest describes the neighborhood a case should be written for.
type ScenarioRequest struct {
	Locality   string
	Difficulty gumshoe.Difficulty
	POINames   []string
}

func (c *Client) GenerateScenario(ctx context.Context, req ScenarioRequest) (gumshoe.Scenario, error) {
	minSuspects, maxSuspects := req.Difficulty.SuspectRange()

	var out struct {
		Title   string `json:"title"`
		Setting string `json:"setting"`
		Victim  struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"victim"`
		Suspects []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Alibi       string `json:"alibi"`
			Motive      string `json:"motive"`
		} `json:"suspects"`
		Culprit string `json:"culprit"`
	}
	err := c.generateWithRetry(ctx, scenarioPrompt(req, minSuspects, maxSuspects), &out)
	if err != nil {
		if errors.Is(err, gumshoe.ErrExternalTimeout) {
			return gumshoe.Scenario{}, err
		}
		return gumshoe.Scenario{}, fmt.Errorf("%w: %v", gumshoe.ErrScenarioGeneration, err)
	}

	sc := gumshoe.Scenario{
		Title:   strings.TrimSpace(out.Title),
		Setting: strings.TrimSpace(out.Setting),
		Victim: gumshoe.Victim{
			Name:        strings.TrimSpace(out.Victim.Name),
			Description: strings.TrimSpace(out.Victim.Description),
		},
		Culprit: strings.TrimSpace(out.Culprit),
	}
	for _, s := range out.Suspects {
		sc.Suspects = append(sc.Suspects, gumshoe.Suspect{
			Name:        strings.TrimSpace(s.Name),
			Description: strings.TrimSpace(s.Description),
			Alibi:       strings.TrimSpace(s.Alibi),
			Motive:      strings.TrimSpace(s.Motive),
		})
	}
	if err := validateScenario(sc, minSuspects, maxSuspects); err != nil {
		return gumshoe.Scenario{}, fmt.Errorf("%w: %v", gumshoe.ErrScenarioGeneration, err)
	}
	return sc, nil
}

func validateScenario(sc gumshoe.Scenario, minSuspects, maxSuspects int) error {
	if sc.Title == "" || sc.Setting == "" {
		return errors.New("scenario missing title or setting")
	}
	if sc.Victim.Name == "" {
		return errors.New("scenario missing victim")
	}
	if n := len(sc.Suspects); n < minSuspects || n > maxSuspects {
		return fmt.Errorf("scenario has %d suspects, want %d-%d", n, minSuspects, maxSuspects)
	}
	if _, ok := sc.SuspectNamed(sc.Culprit); !ok {
		return fmt.Errorf("culprit %q is not one of the suspects", sc.Culprit)
	}
	return nil
}

// EvidenceSeed is a narrative clue not yet bound to a map location. The
// engine pairs seeds with placements; POIName is the model's preferred spot
// and may name a placement or be ignored.
type EvidenceSeed struct {
	Name        string
	Description string
	Importance  gumshoe.Importance
	POIName     string
}

func (c *Client) GenerateEvidence(ctx context.Context, sc gumshoe.Scenario, placements []gumshoe.Placement, count int) ([]EvidenceSeed, error) {
	var out struct {
		Evidence []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Importance  string `json:"importance"`
			POIName     string `json:"poi_name"`
		} `json:"evidence"`
	}
	err := c.generateWithRetry(ctx, evidencePrompt(sc, placements, count), &out)
	if err != nil {
		if errors.Is(err, gumshoe.ErrExternalTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", gumshoe.ErrScenarioGeneration, err)
	}
	if len(out.Evidence) < count {
		return nil, fmt.Errorf("%w: model produced %d evidence items, want %d", gumshoe.ErrScenarioGeneration, len(out.Evidence), count)
	}

	seeds := make([]EvidenceSeed, 0, count)
	for _, e := range out.Evidence[:count] {
		seed := EvidenceSeed{
			Name:        strings.TrimSpace(e.Name),
			Description: strings.TrimSpace(e.Description),
			Importance:  gumshoe.Importance(strings.TrimSpace(strings.ToLower(e.Importance))),
			POIName:     strings.TrimSpace(e.POIName),
		}
		if seed.Name == "" {
			return nil, fmt.Errorf("%w: evidence item missing name", gumshoe.ErrScenarioGeneration)
		}
		// An unknown importance class falls back to the placement's
		// suggestion when the engine binds the seed.
		if !gumshoe.ValidImportance(seed.Importance) {
			seed.Importance = ""
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// Reactions asks the cast to respond to the player's accusation. Characters
// the scenario does not know are dropped.
func (c *Client) Reactions(ctx context.Context, sc gumshoe.Scenario, accused string, correct bool) ([]gumshoe.Reaction, error) {
	var out struct {
		Reactions []struct {
			CharacterName string `json:"character_name"`
			Reaction      string `json:"reaction"`
			ReactionType  string `json:"reaction_type"`
		} `json:"reactions"`
	}
	if err := c.generate(ctx, reactionsPrompt(sc, accused, correct), &out); err != nil {
		return nil, err
	}

	valid := map[string]bool{"confession": true, "denial": true, "surprise": true, "praise": true}
	var reactions []gumshoe.Reaction
	for _, r := range out.Reactions {
		name := strings.TrimSpace(r.CharacterName)
		if _, known := sc.SuspectNamed(name); !known {
			continue
		}
		kind := strings.TrimSpace(strings.ToLower(r.ReactionType))
		if !valid[kind] || strings.TrimSpace(r.Reaction) == "" {
			continue
		}
		reactions = append(reactions, gumshoe.Reaction{
			CharacterName: name,
			Text:          strings.TrimSpace(r.Reaction),
			Kind:          kind,
		})
	}
	if len(reactions) == 0 {
		return nil, errors.New("model produced no usable reactions")
	}
	return reactions, nil
}

// SuspectAnswer is one in-character interrogation reply. Lying is kept
// server-side; handing it to clients would decide the case for them.
type SuspectAnswer struct {
	Answer   string
	Reaction string
	Lying    bool
}

func (c *Client) InterrogationAnswer(ctx context.Context, sc gumshoe.Scenario, suspect gumshoe.Suspect, question string) (SuspectAnswer, error) {
	var out struct {
		Answer   string `json:"answer"`
		Reaction string `json:"reaction"`
		IsLying  bool   `json:"is_lying"`
	}
	if err := c.generate(ctx, interrogationPrompt(sc, suspect, question), &out); err != nil {
		return SuspectAnswer{}, err
	}
	if strings.TrimSpace(out.Answer) == "" {
		return SuspectAnswer{}, errors.New("model produced no answer")
	}
	return SuspectAnswer{
		Answer:   strings.TrimSpace(out.Answer),
		Reaction: strings.TrimSpace(out.Reaction),
		Lying:    out.IsLying,
	}, nil
}

func (c *Client) generateWithRetry(ctx context.Context, prompt string, out any) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = c.generate(ctx, prompt, out); err == nil {
			return nil
		}
		// A dead context will not recover on a retry.
		if errors.Is(err, gumshoe.ErrExternalTimeout) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

type generateRequest struct {
	Contents         []requestContent  `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

// generate sends one prompt and decodes the model's JSON output into out.
func (c *Client) generate(ctx context.Context, prompt string, out any) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(generateRequest{
		Contents: []requestContent{{Parts: []requestPart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:      0.8,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal model request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key travels only as a header, never in URLs or error text.
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", gumshoe.ErrExternalTimeout, err)
		}
		return fmt.Errorf("model request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return fmt.Errorf("read model error body: %w", err)
		}
		return fmt.Errorf("model request status %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
	}

	var payload struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	if len(payload.Candidates) == 0 {
		return errors.New("model response has no candidates")
	}
	var text strings.Builder
	for _, p := range payload.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	raw := trimFences(text.String())
	if raw == "" {
		return errors.New("model response missing text")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

// trimFences strips a markdown code fence. Models sometimes add one even
// when asked for bare JSON.
func trimFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
