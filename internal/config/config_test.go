package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()
	if cfg.Port != "8082" {
		t.Errorf("port: got %s", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("backend: got %s", cfg.DataBackend)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl: got %v", cfg.TokenTTL)
	}
	if cfg.SeedDemoUser {
		t.Error("demo user seeding on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", t.TempDir()+"/cashflow.db")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("SEED_DEMO_USER", "true")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DataBackend != "sqlite" || cfg.TokenTTL != time.Hour || !cfg.SeedDemoUser {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config invalid: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Port:            "not-a-port",
		DataBackend:     "cloud",
		JWTSecret:       "",
		TokenTTL:        time.Second,
		AMQPURL:         "http://wrong-scheme",
		DigestInterval:  time.Hour,
		ReportBatchSize: 0,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"invalid port", "invalid data backend", "JWT_SECRET", "token TTL", "AMQP URL scheme", "report batch size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}
