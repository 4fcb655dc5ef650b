package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hub20d.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  url: https://hub.example.com
storage:
  path: /tmp/session.json
refresh:
  schedule: "@every 30s"
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Server.URL != "https://hub.example.com" {
		t.Fatalf("server url=%q", cfg.Server.URL)
	}
	if cfg.Refresh.Schedule != "@every 30s" {
		t.Fatalf("schedule=%q", cfg.Refresh.Schedule)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Fatalf("log config=%+v", cfg.Log)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  url: https://hub.example.com
`)
	t.Setenv("HUB20_SERVER_URL", "https://other.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Server.URL != "https://other.example.com" {
		t.Fatalf("server url=%q want env override", cfg.Server.URL)
	}
}

func TestDefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
server:
  url: https://hub.example.com
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Refresh.Schedule != "@every 1m" {
		t.Fatalf("schedule=%q want default", cfg.Refresh.Schedule)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("level=%q want info", cfg.Log.Level)
	}
	if cfg.Storage.Path == "" {
		t.Fatal("storage path default missing")
	}
}

func TestMissingServerURLRejected(t *testing.T) {
	path := writeConfig(t, `
log:
  level: warn
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for missing server.url")
	}
}
