package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, `{
		"general": {"debug": true},
		"server": {"address": ":9999"},
		"llm": {
			"api_key": "sk-test",
			"model": "gpt-5",
			"fallback_model": "gpt-4.1",
			"models": ["gpt-4o-mini-search-preview"],
			"attempt_timeout": "45s"
		},
		"search": {"enabled": false},
		"session": {"ttl": "10m"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.General.Debug {
		t.Fatalf("expected debug enabled")
	}
	if cfg.Server.Address != ":9999" {
		t.Fatalf("address = %q", cfg.Server.Address)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.LLM.FallbackModel != "gpt-4.1" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.LLM.AttemptTimeout != 45*time.Second {
		t.Fatalf("attempt timeout = %v", cfg.LLM.AttemptTimeout)
	}
	if len(cfg.LLM.Models) != 2 || cfg.LLM.Models[0] != "gpt-5" {
		t.Fatalf("expected preferred model prepended, got %#v", cfg.LLM.Models)
	}
	if cfg.Search.Enabled {
		t.Fatalf("expected search disabled by file")
	}
	if cfg.Session.TTL != 10*time.Minute || cfg.Session.SweepInterval != 5*time.Minute {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.LLM.SystemPrompt != DefaultSystemPrompt {
		t.Fatalf("expected default system prompt")
	}
}

func TestLoadAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	path := writeConfig(t, `{"llm": {"model": "gpt-5"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-env" {
		t.Fatalf("api key = %q, want sk-env", cfg.LLM.APIKey)
	}
	if !cfg.Search.Enabled {
		t.Fatalf("search should default to enabled")
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("base url = %q", cfg.LLM.BaseURL)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SEARCHCHAT_LLM_API_KEY", "")
	path := writeConfig(t, `{}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLLMConfigNormalizeDedupesModels(t *testing.T) {
	cfg := LLMConfig{Model: "a", Models: []string{" b ", "a", "b", ""}}.Normalize()
	if len(cfg.Models) != 2 || cfg.Models[0] != "b" || cfg.Models[1] != "a" {
		t.Fatalf("unexpected models: %#v", cfg.Models)
	}
	if !cfg.HasModel("a") || cfg.HasModel("c") {
		t.Fatalf("HasModel mismatch for %#v", cfg.Models)
	}
}

func TestLoadLogLevelAndHistoryDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load(writeConfig(t, `{"general": {"log_level": " DEBUG "}}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.LogLevel != "debug" || !cfg.General.DebugEnabled() {
		t.Fatalf("expected debug logging from log_level, got %+v", cfg.General)
	}
	if cfg.LLM.HistoryTokens != 8000 {
		t.Fatalf("history tokens = %d, want 8000", cfg.LLM.HistoryTokens)
	}

	cfg, err = Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.LogLevel != "info" || cfg.General.DebugEnabled() {
		t.Fatalf("expected info level without debug, got %+v", cfg.General)
	}
}

func TestLoadRejectsBadLogLevelAndHistoryBudget(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	for _, body := range []string{
		`{"general": {"log_level": "verbose"}}`,
		`{"llm": {"history_tokens": -1}}`,
	} {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}
