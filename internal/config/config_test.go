package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("session ttl = %s, want 24h", cfg.SessionTTL)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", cfg.Timezone)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WEVY_PORT", "9999")
	t.Setenv("WEVY_TIMEZONE", "America/Denver")
	t.Setenv("WEVY_SESSION_TTL", "12h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("port = %q, want %q", cfg.Port, "9999")
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("session ttl = %s, want 12h", cfg.SessionTTL)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "America/Denver" {
		t.Errorf("location = %q, want America/Denver", loc.String())
	}
}

func TestLoadInvalidTimezone(t *testing.T) {
	t.Setenv("WEVY_TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown timezone, got nil")
	}
}

func TestLoadInvalidTTL(t *testing.T) {
	t.Setenv("WEVY_SESSION_TTL", "0s")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero ttl, got nil")
	}
}

func TestLoadInvalidRateLimit(t *testing.T) {
	t.Setenv("WEVY_VOTE_RATE_LIMIT", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero rate limit, got nil")
	}
}
