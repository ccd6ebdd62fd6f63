package server

import (
	"net/http"
	"testing"
)

func TestEventsValidation(t *testing.T) {
	ts := newTestServer(t)
	game := ts.startGame(t, "player-1")

	w := ts.do(t, http.MethodGet, "/api/games/"+game.GameID+"/events", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("no player: expected 400, got %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/api/games/no-such-game/events?playerID=player-1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown game: expected 404, got %d", w.Code)
	}
}
