package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mystreets/gumshoe/internal/database"
	"github.com/mystreets/gumshoe/internal/engine"
	"github.com/mystreets/gumshoe/internal/genai"
	"github.com/mystreets/gumshoe/internal/gumshoe"
	"github.com/mystreets/gumshoe/internal/migrations"
	"github.com/mystreets/gumshoe/internal/registry"
	"github.com/mystreets/gumshoe/internal/store"
)

const opsTestUser = "ops"
const opsTestPassword = "letmein"

var testCenter = Coordinates{Lat: 35.68, Lng: 139.76}

// offsetLat moves a coordinate north by roughly the given number of meters.
func offsetLat(c Coordinates, meters float64) Coordinates {
	return Coordinates{Lat: c.Lat + meters/111194.9, Lng: c.Lng}
}

type fakeGenerator struct {
	scenario    gumshoe.Scenario
	scenarioErr error
	answer      genai.SuspectAnswer
	reactions   []gumshoe.Reaction
}

func (f *fakeGenerator) GenerateScenario(_ context.Context, _ genai.ScenarioRequest) (gumshoe.Scenario, error) {
	if f.scenarioErr != nil {
		return gumshoe.Scenario{}, f.scenarioErr
	}
	return f.scenario, nil
}

func (f *fakeGenerator) GenerateEvidence(_ context.Context, _ gumshoe.Scenario, placements []gumshoe.Placement, count int) ([]genai.EvidenceSeed, error) {
	seeds := make([]genai.EvidenceSeed, count)
	for i := range seeds {
		p := placements[i%len(placements)]
		seeds[i] = genai.EvidenceSeed{
			Name:        fmt.Sprintf("Exhibit %d", i+1),
			Description: fmt.Sprintf("Something was left behind near %s.", p.POI.Name),
			POIName:     p.POI.Name,
		}
	}
	return seeds, nil
}

func (f *fakeGenerator) Reactions(_ context.Context, _ gumshoe.Scenario, _ string, _ bool) ([]gumshoe.Reaction, error) {
	return f.reactions, nil
}

func (f *fakeGenerator) InterrogationAnswer(_ context.Context, _ gumshoe.Scenario, _ gumshoe.Suspect, _ string) (genai.SuspectAnswer, error) {
	return f.answer, nil
}

type fakePlaces struct {
	spots []gumshoe.Placement
}

func (f *fakePlaces) FindPlacements(_ context.Context, _ gumshoe.Location, count int, _ float64) ([]gumshoe.Placement, error) {
	if len(f.spots) > count {
		return f.spots[:count], nil
	}
	return f.spots, nil
}

func testScenario() gumshoe.Scenario {
	return gumshoe.Scenario{
		Title:   "The Gallery Heist",
		Setting: "A small painting vanished from the Riverside Gallery overnight.",
		Victim:  gumshoe.Victim{Name: "Edith Crane", Description: "Gallery owner, found locked in her own archive."},
		Suspects: []gumshoe.Suspect{
			{Name: "Vera Stone", Description: "Art restorer", Alibi: "Working late in the studio.", Motive: "The painting covered her forgery."},
			{Name: "Milo Park", Description: "Night guard", Alibi: "On my rounds, as always.", Motive: "Gambling debts."},
			{Name: "Dana Holt", Description: "Rival collector", Alibi: "At an auction across town.", Motive: "Wanted the piece for years."},
		},
		Culprit: "Milo Park",
	}
}

// testSpots spreads candidate placements north from testCenter, 120m apart,
// so only the first is reachable from the start location.
func testSpots(n int) []gumshoe.Placement {
	lead := []gumshoe.Importance{
		gumshoe.ImportanceCritical,
		gumshoe.ImportanceImportant,
		gumshoe.ImportanceMisleading,
	}
	categories := []string{"cafe", "park", "landmark"}
	out := make([]gumshoe.Placement, n)
	for i := range out {
		imp := gumshoe.ImportanceBackground
		if i < len(lead) {
			imp = lead[i]
		}
		loc := offsetLat(testCenter, float64(i)*120)
		out[i] = gumshoe.Placement{
			POI: gumshoe.POI{
				Name:     fmt.Sprintf("Spot %d", i+1),
				Category: categories[i%len(categories)],
				Location: gumshoe.Location{Lat: loc.Lat, Lng: loc.Lng},
			},
			SuggestedImportance: imp,
		}
	}
	return out
}

type testServer struct {
	router   *chi.Mux
	gen      *fakeGenerator
	places   *fakePlaces
	services *registry.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	ts := &testServer{
		gen: &fakeGenerator{
			scenario: testScenario(),
			answer: genai.SuspectAnswer{
				Answer:   "I already told the police everything.",
				Reaction: "shifts from foot to foot",
				Lying:    true,
			},
			reactions: []gumshoe.Reaction{
				{CharacterName: "Milo Park", Text: "Fine. It was me.", Kind: "confession"},
			},
		},
		places: &fakePlaces{spots: testSpots(8)},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts.services = registry.New(logger)
	ts.services.Register(engine.ServiceStore, func(context.Context) (any, error) { return store.New(db), nil })
	ts.services.Register(engine.ServiceGenAI, func(context.Context) (any, error) { return ts.gen, nil })
	ts.services.Register(engine.ServicePlaces, func(context.Context) (any, error) { return ts.places, nil })

	eng := engine.New(logger, ts.services)

	hash, err := bcrypt.GenerateFromPassword([]byte(opsTestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing ops password: %v", err)
	}

	r := chi.NewRouter()
	addRoutes(r, logger, eng, ts.services, db, nil, OpsAuth{User: opsTestUser, Hash: string(hash)})
	ts.router = r
	return ts
}

// do sends a request through the router, JSON-encoding body when non-nil.
func (ts *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) startGame(t *testing.T, playerID string) GameView {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/games", StartGameRequest{
		PlayerID: playerID,
		Location: testCenter,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("start game: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var view GameView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decoding game view: %v", err)
	}
	return view
}
