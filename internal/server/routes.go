package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/mystreets/gumshoe/internal/engine"
	"github.com/mystreets/gumshoe/internal/registry"
)

func addRoutes(r chi.Router, logger *slog.Logger, eng *engine.Engine, services *registry.Manager, db *sql.DB, rdb *redis.Client, ops OpsAuth) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Gumshoe API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb, services))

	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", handleStartGame(eng))
		r.Get("/{gameID}", handleGetGame(eng))
		r.Post("/{gameID}/evidence/{evidenceID}/discover", handleDiscover(eng, broker))
		r.Get("/{gameID}/evidence/{evidenceID}/hint", handleEvidenceHint(eng, broker))
		r.Post("/{gameID}/deduction", handleDeduction(eng, broker))
		r.Post("/{gameID}/hints", handleHint(eng, broker))
		r.Post("/{gameID}/interrogate", handleInterrogate(eng))
		r.Get("/{gameID}/nearby", handleNearby(eng))
		r.Get("/{gameID}/events", handleEvents(eng, broker))
		r.Get("/{gameID}/track", handleTrack(logger, eng))
	})

	r.Get("/api/players/{playerID}/history", handleHistory(eng))

	r.Route("/api/ops", func(r chi.Router) {
		r.Use(opsAuth(ops))
		r.Get("/status", handleOpsStatus(services))
		r.Post("/warmup", handleOpsWarmup(services))
	})
}
