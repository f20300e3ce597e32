package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "CART_STORE", "CART_MAX_AGE_HOURS", "CART_CONFLICT_RETRIES", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" || cfg.CartStore != CartStorePostgres {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.CartMaxAge != 0 || cfg.CartConflictRetries != 3 {
		t.Fatalf("unexpected cart defaults %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CART_STORE", "Mongo")
	t.Setenv("CART_MAX_AGE_HOURS", "48")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	cfg := FromEnv()
	if cfg.CartStore != CartStoreMongo {
		t.Fatalf("expected mongo store, got %s", cfg.CartStore)
	}
	if cfg.CartMaxAge != 48*time.Hour || cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("MONGO_DATABASE=from_file\nHTTP_ADDR=:9999\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("MONGO_DATABASE", "")
	os.Unsetenv("MONGO_DATABASE")
	t.Cleanup(func() { os.Unsetenv("MONGO_DATABASE") })

	cfg := Load(path)
	if cfg.HTTPAddr != ":7000" {
		t.Fatalf("environment should win, got %s", cfg.HTTPAddr)
	}
	if cfg.MongoDatabase != "from_file" {
		t.Fatalf("expected value from .env, got %s", cfg.MongoDatabase)
	}
}
