package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.MaxConversationTurns != 15 {
		t.Errorf("expected max turns 15, got %d", cfg.MaxConversationTurns)
	}
	if cfg.MinConversationTurns != 3 {
		t.Errorf("expected min turns 3, got %d", cfg.MinConversationTurns)
	}
	if cfg.MinIntelligenceItems != 2 {
		t.Errorf("expected min intelligence 2, got %d", cfg.MinIntelligenceItems)
	}
	if cfg.CallbackMaxRetries != 3 {
		t.Errorf("expected 3 callback retries, got %d", cfg.CallbackMaxRetries)
	}
	if cfg.CallbackBaseDelay != 2*time.Second {
		t.Errorf("expected 2s base delay, got %s", cfg.CallbackBaseDelay)
	}
	if cfg.PersonaName != "Ramesh" || cfg.PersonaAge != 68 {
		t.Errorf("unexpected persona defaults: %s/%d", cfg.PersonaName, cfg.PersonaAge)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_CONVERSATION_TURNS", "5")
	t.Setenv("CALLBACK_RETRY_BASE_DELAY", "500ms")
	t.Setenv("USE_MEMORY_QUEUE", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.MaxConversationTurns != 5 {
		t.Errorf("expected max turns 5, got %d", cfg.MaxConversationTurns)
	}
	if cfg.CallbackBaseDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms base delay, got %s", cfg.CallbackBaseDelay)
	}
	if cfg.UseMemoryQueue {
		t.Error("expected memory queue disabled")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestGetEnvAsIntInvalid(t *testing.T) {
	t.Setenv("MAX_CONVERSATION_TURNS", "not-a-number")
	cfg := Load()
	if cfg.MaxConversationTurns != 15 {
		t.Errorf("expected fallback to default 15, got %d", cfg.MaxConversationTurns)
	}
}
