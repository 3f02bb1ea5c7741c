package config

import (
	"testing"
	"time"

	"github.com/unisportai/unisport-sync/internal/platform/logging"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Fatalf("AppEnv = %q, want %q", cfg.AppEnv, EnvDev)
	}
	if cfg.FuzzyMatchThreshold != 0.85 {
		t.Fatalf("FuzzyMatchThreshold = %v, want 0.85", cfg.FuzzyMatchThreshold)
	}
	if cfg.UnisportTimeout != 20*time.Second {
		t.Fatalf("UnisportTimeout = %v, want 20s", cfg.UnisportTimeout)
	}
	if cfg.UnisportLocationsURL == "" {
		t.Fatal("UnisportLocationsURL is empty")
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoadInvalidAppEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid APP_ENV")
	}
}

func TestLoadInvalidThreshold(t *testing.T) {
	t.Setenv("FUZZY_MATCH_THRESHOLD", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	t.Setenv("UNISPORT_TIMEOUT", "-5s")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("UNISPORT_MAX_RETRIES", "4")
	t.Setenv("UNISPORT_BASE_URL", "https://example.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AppEnv != EnvProd {
		t.Fatalf("AppEnv = %q, want %q", cfg.AppEnv, EnvProd)
	}
	if cfg.LogLevel != logging.LevelWarn {
		t.Fatalf("LogLevel = %v, want warn", cfg.LogLevel)
	}
	if cfg.UnisportMaxRetries != 4 {
		t.Fatalf("UnisportMaxRetries = %d, want 4", cfg.UnisportMaxRetries)
	}
	if cfg.UnisportOffersURL != "https://example.org/angebote/aktueller_zeitraum/" {
		t.Fatalf("UnisportOffersURL = %q", cfg.UnisportOffersURL)
	}
}
