package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalConfig = `{
  "line": {"channel_access_token": "token", "channel_secret": "secret", "user_id": "U123"},
  "home": {"broker_url": "mqtt://broker.local:1883"},
  "expense": {"webhook_url": "https://ledger.example/hook"},
  "api": {"key": "k"},
  "gateway": {"host": "0.0.0.0", "port": 18790},
  "logging": {"format": "json", "level": "debug"}
}`

func writeConfig(t *testing.T, content string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("AUTOMATRON_CONFIG", path)
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	writeConfig(t, minimalConfig)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Line.UserID != "U123" {
		t.Fatalf("line.user_id = %q, want %q", cfg.Line.UserID, "U123")
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging.format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Home.Topic != "home" {
		t.Fatalf("home.topic default = %q, want %q", cfg.Home.Topic, "home")
	}
}

func TestLoadConfigEnvOverridesWin(t *testing.T) {
	writeConfig(t, minimalConfig)
	t.Setenv("MQTT_URL", "mqtt://other:1883")
	t.Setenv("AUTOMATRON_API_KEY", "override-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Home.BrokerURL != "mqtt://other:1883" {
		t.Fatalf("home.broker_url = %q, want env override", cfg.Home.BrokerURL)
	}
	if cfg.API.Key != "override-key" {
		t.Fatalf("api.key = %q, want env override", cfg.API.Key)
	}
}

func TestLoadConfigMissingSecret(t *testing.T) {
	writeConfig(t, `{"line": {"channel_access_token": "token"}}`)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error for incomplete config")
	}
}

func TestLoadConfigInvalidEnvPath(t *testing.T) {
	t.Setenv("AUTOMATRON_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config path")
	}
}
