package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Unset all LEADROUTER_ env vars to test pure defaults
	envVars := []string{
		"LEADROUTER_PORT", "LEADROUTER_METRICS_PORT", "LEADROUTER_ADMIN_TOKEN",
		"LEADROUTER_DATABASE_URL", "LEADROUTER_NATS_URL",
		"LEADROUTER_AUTO_ASSIGN_THRESHOLD", "LEADROUTER_DUPLICATE_WINDOW_HOURS",
		"LEADROUTER_LOG_LEVEL",
	}
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Events.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Events.URL)
	}
	if cfg.Routing.AutoAssignThreshold != 80 {
		t.Errorf("expected threshold 80, got %d", cfg.Routing.AutoAssignThreshold)
	}
	if cfg.Routing.DuplicateWindowHours != 24 {
		t.Errorf("expected 24h duplicate window, got %d", cfg.Routing.DuplicateWindowHours)
	}
	if cfg.Routing.RateLimitPerMinute != 120 {
		t.Errorf("expected rate limit 120, got %d", cfg.Routing.RateLimitPerMinute)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}

	// Scoring defaults
	sw := cfg.Scoring.Weights
	expectedWeights := map[string]float64{
		"category": 0.30, "price_range": 0.25, "tier": 0.20,
		"workload": 0.15, "performance": 0.10,
	}
	actualWeights := map[string]float64{
		"category": sw.Category, "price_range": sw.PriceRange, "tier": sw.Tier,
		"workload": sw.Workload, "performance": sw.Performance,
	}
	var weightSum float64
	for name, expected := range expectedWeights {
		actual := actualWeights[name]
		if math.Abs(actual-expected) > 0.001 {
			t.Errorf("scoring weight %s: expected %f, got %f", name, expected, actual)
		}
		weightSum += actual
	}
	if math.Abs(weightSum-1.0) > 0.001 {
		t.Errorf("scoring weights sum to %f, expected 1.0", weightSum)
	}

	if cfg.DuplicateWindow() != 24*time.Hour {
		t.Errorf("expected DuplicateWindow 24h, got %v", cfg.DuplicateWindow())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEADROUTER_PORT", "9000")
	t.Setenv("LEADROUTER_METRICS_PORT", "9001")
	t.Setenv("LEADROUTER_ADMIN_TOKEN", "secret-token")
	t.Setenv("LEADROUTER_DATABASE_URL", "postgres://localhost/leadrouter_test")
	t.Setenv("LEADROUTER_NATS_URL", "nats://nats:4222")
	t.Setenv("LEADROUTER_AUTO_ASSIGN_THRESHOLD", "85")
	t.Setenv("LEADROUTER_DUPLICATE_WINDOW_HOURS", "48")
	t.Setenv("LEADROUTER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.AdminToken != "secret-token" {
		t.Errorf("expected admin token 'secret-token', got '%s'", cfg.Server.AdminToken)
	}
	if cfg.Database.URL != "postgres://localhost/leadrouter_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Events.URL != "nats://nats:4222" {
		t.Errorf("expected nats URL, got '%s'", cfg.Events.URL)
	}
	if cfg.Routing.AutoAssignThreshold != 85 {
		t.Errorf("expected threshold 85, got %d", cfg.Routing.AutoAssignThreshold)
	}
	if cfg.Routing.DuplicateWindowHours != 48 {
		t.Errorf("expected 48h duplicate window, got %d", cfg.Routing.DuplicateWindowHours)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  port: 8800
routing:
  auto_assign_threshold: 90
scoring:
  weights:
    category: 0.40
    price_range: 0.20
    tier: 0.20
    workload: 0.10
    performance: 0.10
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8800 {
		t.Errorf("expected port 8800, got %d", cfg.Server.Port)
	}
	if cfg.Routing.AutoAssignThreshold != 90 {
		t.Errorf("expected threshold 90, got %d", cfg.Routing.AutoAssignThreshold)
	}
	if cfg.Scoring.Weights.Category != 0.40 {
		t.Errorf("expected category weight 0.40, got %f", cfg.Scoring.Weights.Category)
	}
	// Untouched sections keep their defaults
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port, got %d", cfg.Server.MetricsPort)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
