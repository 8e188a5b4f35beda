package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DATABASE_URL", "HTTP_ADDR", "PROFILE_ID", "LOG_LEVEL",
		"DEFAULT_PROVIDER", "DEFAULT_MODEL", "GOOGLE_API_KEY", "OPENROUTER_API_KEY",
		"PROXY_URL", "PROXY_API_KEY", "GEMINI_BASE_URL", "OPENROUTER_BASE_URL",
		"REQUEST_TIMEOUT", "HISTORY_LIMIT", "MAX_ATTEMPTS", "REGENERATE_TIMEOUT",
		"MIN_REGENERATE_DURATION",
	} {
		t.Setenv(key, "")
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.ProfileID != "default" || cfg.DefaultProvider != "gemini" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.HistoryLimit != 10 || cfg.MaxAttempts != 3 {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
	if cfg.RegenerateTimeout != 30*time.Second || cfg.MinRegenerateDuration != 500*time.Millisecond || cfg.RequestTimeout != time.Minute {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("unexpected level %v", cfg.SlogLevel())
	}
}

func TestParseFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  url: postgres://file/db
server:
  addr: ":9090"
llm:
  provider: openrouter
  model: openai/gpt-4o
  openrouter_api_key: file-key
chat:
  history_limit: 20
  regenerate_timeout: 10s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.DatabaseURL != "postgres://file/db" || cfg.HTTPAddr != ":7070" {
		t.Fatalf("unexpected addresses: %+v", cfg)
	}
	if cfg.HistoryLimit != 20 || cfg.RegenerateTimeout != 10*time.Second || cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("file values not applied: %+v", cfg)
	}

	settings := cfg.APISettings()
	if settings.Provider != "openrouter" || settings.SelectedModel != "openai/gpt-4o" || settings.OpenRouterAPIKey != "env-key" {
		t.Fatalf("unexpected api settings: %+v", settings)
	}
	if settings.Temperature != 0.7 || settings.MaxTokens != 1024 {
		t.Fatalf("generation defaults lost: %+v", settings)
	}
}

func TestParseRejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_PROVIDER", "anthropic")

	if _, err := Parse(); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestParseIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("HISTORY_LIMIT", "many")
	t.Setenv("REGENERATE_TIMEOUT", "soon")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.HistoryLimit != 10 || cfg.RegenerateTimeout != 30*time.Second {
		t.Fatalf("malformed values must fall back to defaults: %+v", cfg)
	}
}
