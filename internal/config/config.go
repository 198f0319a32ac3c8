package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all server configuration, parsed from the environment
type Config struct {
	// HTTP server
	Host string `env:"HOST" envDefault:""`
	Port int    `env:"PORT" envDefault:"8080"`

	// Storage backend: "memory" or "redis"
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	// GameIdleEviction is how long a room's in-memory game state may sit
	// untouched before the sweeper discards it. Zero disables the sweep.
	GameIdleEviction time.Duration `env:"GAME_IDLE_EVICTION" envDefault:"6h"`
}

// Load parses configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.StorageType == "redis" && cfg.RedisURL == "" {
		return Config{}, errors.New("REDIS_URL is required when STORAGE_TYPE=redis")
	}

	return cfg, nil
}
