package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mystreets/gumshoe/internal/database"
	"github.com/mystreets/gumshoe/internal/engine"
	"github.com/mystreets/gumshoe/internal/registry"
)

func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   0,
	})
}

func TestHandleHealth(t *testing.T) {
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer db.Close()

	closedDB, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening second db: %v", err)
	}
	closedDB.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	services := registry.New(logger)
	services.Register(engine.ServiceStore, func(context.Context) (any, error) { return nil, nil })

	tests := []struct {
		name       string
		db         *sql.DB
		rdb        *redis.Client
		wantStatus int
		wantBody   string
		wantSQLite string
		wantRedis  string
	}{
		{
			name:       "healthy without redis",
			db:         db,
			rdb:        nil,
			wantStatus: http.StatusOK,
			wantBody:   "ok",
			wantSQLite: "ok",
			wantRedis:  "",
		},
		{
			name:       "redis down",
			db:         db,
			rdb:        deadRedis(),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "degraded",
			wantSQLite: "ok",
			wantRedis:  "error",
		},
		{
			name:       "database gone",
			db:         closedDB,
			rdb:        nil,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "degraded",
			wantSQLite: "error",
			wantRedis:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handleHealth(logger, tt.db, tt.rdb, services)

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			h(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding: %v", err)
			}
			if body.Status != tt.wantBody {
				t.Errorf("status field = %q, want %q", body.Status, tt.wantBody)
			}
			if got := body.Checks["sqlite"]; got != tt.wantSQLite {
				t.Errorf("sqlite = %q, want %q", got, tt.wantSQLite)
			}
			if got := body.Checks["redis"]; got != tt.wantRedis {
				t.Errorf("redis = %q, want %q", got, tt.wantRedis)
			}

			// Lazy services are reported but never fail the probe.
			st, ok := body.Services[engine.ServiceStore]
			if !ok {
				t.Fatal("services missing the store entry")
			}
			if st.State != registry.StateUninitialized {
				t.Errorf("store state = %q, want uninitialized", st.State)
			}
		})
	}
}
