package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/gumshoe.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Gemini powers scenario generation, suspect reactions and
	// interrogation answers. With no key the server refuses to start
	// games but everything else still works.
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiTimeout time.Duration `env:"GEMINI_TIMEOUT" envDefault:"30s"`

	// Places lookups fall back to synthetic points when no key is set,
	// which keeps local development self-contained.
	PlacesAPIKey string `env:"PLACES_API_KEY"`

	// RedisURL enables the places cache. Empty disables caching.
	RedisURL string `env:"REDIS_URL"`

	OpsUser         string `env:"OPS_USER" envDefault:"ops"`
	OpsPasswordHash string `env:"OPS_PASSWORD_HASH"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
