package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

// Config holds the service settings read from the environment at startup.
type Config struct {
	Port          string        `env:"WEVY_PORT"           envDefault:"8080"`
	DBPath        string        `env:"WEVY_DB_PATH"        envDefault:"wevy.db"`
	LogLevel      string        `env:"WEVY_LOG_LEVEL"      envDefault:"info"`
	LogFormat     string        `env:"WEVY_LOG_FORMAT"     envDefault:"text"`
	Timezone      string        `env:"WEVY_TIMEZONE"       envDefault:"UTC"`
	SessionTTL    time.Duration `env:"WEVY_SESSION_TTL"    envDefault:"24h"`
	SweepInterval time.Duration `env:"WEVY_SWEEP_INTERVAL" envDefault:"5m"`
	VoteRateLimit int           `env:"WEVY_VOTE_RATE_LIMIT" envDefault:"60"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("session ttl must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.SweepInterval <= 0 {
		return Config{}, fmt.Errorf("sweep interval must be positive, got %s", cfg.SweepInterval)
	}
	if cfg.VoteRateLimit <= 0 {
		return Config{}, fmt.Errorf("vote rate limit must be positive, got %d", cfg.VoteRateLimit)
	}
	return cfg, nil
}

// Location resolves the household reference timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
