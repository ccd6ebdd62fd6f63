package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Gumshoe API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Gumshoe street mystery game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns dependency checks and the lazy services' states.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/games
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	postGame.SetSummary("Start game")
	postGame.SetDescription("Generates a mystery around the player's location and creates an active session.")
	postGame.AddReqStructure(StartGameRequest{})
	postGame.AddRespStructure(GameView{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(postGame)

	// GET /api/games/{gameID}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}")
	getGame.SetSummary("Get game")
	getGame.SetDescription("Returns the session view. Evidence descriptions and the culprit stay hidden while the game is active.")
	getGame.AddRespStructure(GameView{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// POST /api/games/{gameID}/evidence/{evidenceID}/discover
	postDiscover, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/evidence/{evidenceID}/discover")
	postDiscover.SetSummary("Discover evidence")
	postDiscover.SetDescription("Attempts a discovery at the player's location. A miss is a 200 with found=false.")
	postDiscover.AddReqStructure(DiscoverRequest{})
	postDiscover.AddRespStructure(DiscoverResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postDiscover.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postDiscover.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postDiscover.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postDiscover)

	// GET /api/games/{gameID}/evidence/{evidenceID}/hint
	getEvidenceHint, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/evidence/{evidenceID}/hint")
	getEvidenceHint.SetSummary("Evidence location hint")
	getEvidenceHint.SetDescription("Names the POI an undiscovered evidence sits at, for a small score penalty.")
	getEvidenceHint.AddRespStructure(EvidenceHintResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getEvidenceHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	getEvidenceHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getEvidenceHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getEvidenceHint)

	// POST /api/games/{gameID}/deduction
	postDeduction, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/deduction")
	postDeduction.SetSummary("Submit deduction")
	postDeduction.SetDescription("Accuses a suspect, scores and completes the game. A game completes exactly once.")
	postDeduction.AddReqStructure(DeductionRequest{})
	postDeduction.AddRespStructure(DeductionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postDeduction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postDeduction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postDeduction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postDeduction)

	// POST /api/games/{gameID}/hints
	postHint, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/hints")
	postHint.SetSummary("Buy deduction hint")
	postHint.SetDescription("Buys a hint from the graded ladder (levels 1 to 3) against a score penalty.")
	postHint.AddReqStructure(HintRequest{})
	postHint.AddRespStructure(HintResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postHint)

	// POST /api/games/{gameID}/interrogate
	postInterrogate, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/interrogate")
	postInterrogate.SetSummary("Interrogate suspect")
	postInterrogate.SetDescription("Puts one question to a suspect. Each game has a fixed question budget.")
	postInterrogate.AddReqStructure(InterrogateRequest{})
	postInterrogate.AddRespStructure(InterrogateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postInterrogate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postInterrogate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postInterrogate)

	// GET /api/games/{gameID}/nearby
	getNearby, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/nearby")
	getNearby.SetSummary("Nearby evidence")
	getNearby.SetDescription("Lists undiscovered evidence whose discovery radius covers the given location.")
	getNearby.AddRespStructure(NearbyResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getNearby.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getNearby.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getNearby)

	// GET /api/games/{gameID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/events")
	getEvents.SetSummary("Game event stream")
	getEvents.SetDescription("Server-Sent Events feed of discoveries, hints and the final deduction.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/games/{gameID}/track
	getTrack, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/track")
	getTrack.SetSummary("Location stream")
	getTrack.SetDescription("Upgrades to a WebSocket that grades streamed GPS fixes and advises a discovery radius.")
	getTrack.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getTrack)

	// GET /api/players/{playerID}/history
	getHistory, _ := r.NewOperationContext(http.MethodGet, "/api/players/{playerID}/history")
	getHistory.SetSummary("Player history")
	getHistory.SetDescription("Lists the player's completed games, newest first.")
	getHistory.AddRespStructure(HistoryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHistory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getHistory)

	// GET /api/ops/status
	getOpsStatus, _ := r.NewOperationContext(http.MethodGet, "/api/ops/status")
	getOpsStatus.SetSummary("Service status")
	getOpsStatus.SetDescription("Snapshot of every lazy service's state and init timing. Requires Basic auth.")
	getOpsStatus.AddRespStructure(OpsStatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getOpsStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getOpsStatus)

	// POST /api/ops/warmup
	postWarmup, _ := r.NewOperationContext(http.MethodPost, "/api/ops/warmup")
	postWarmup.SetSummary("Warm services")
	postWarmup.SetDescription("Eagerly initializes services, best effort. Requires Basic auth.")
	postWarmup.AddReqStructure(WarmupRequest{})
	postWarmup.AddRespStructure(WarmupResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postWarmup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postWarmup)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
