package config

import (
	"fmt"
	"log/slog"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds server configuration sourced from the environment
type Config struct {
	Host            string        `env:"HOST,default="`
	Port            int           `env:"PORT,default=8080"`
	StorageType     string        `env:"STORAGE_TYPE,default=memory"`
	RedisURL        string        `env:"REDIS_URL,default="`
	SessionDuration time.Duration `env:"SESSION_DURATION,default=24h"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
}

// Load reads configuration from a .env file (if present) and the
// process environment
func Load() (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// SlogLevel maps the configured log level to a slog.Level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
