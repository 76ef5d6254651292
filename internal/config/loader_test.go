package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "hello")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "hello"},
		{"${TEST_VAR:default}", "hello"},
		{"${UNSET_CHATBOT_VAR:fallback}", "fallback"},
		{"${UNSET_CHATBOT_VAR}", ""},
		{"${UNSET_CHATBOT_VAR:}", ""},
		{"no vars here", "no vars here"},
		{"prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
	}

	for _, tt := range tests {
		got := expandEnvVars(tt.input)
		if got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLoadFile_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "chatbot.yaml", `
server:
  port: 9999
chat:
  history_limit: 4
`)

	cfg := DefaultConfig()
	if err := LoadFile(filepath.Join(dir, "chatbot.yaml"), cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default host should survive, got %s", cfg.Server.Host)
	}
	if cfg.Chat.HistoryLimit != 4 {
		t.Errorf("history_limit = %d, want 4", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.DefaultMaxTokens != 1000 {
		t.Errorf("default_max_tokens = %d, want 1000", cfg.Chat.DefaultMaxTokens)
	}
}

func TestLoader_ProvidersFromEnv(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-ant-test")
	dir := t.TempDir()
	writeFile(t, dir, "chatbot.yaml", "storage:\n  driver: memory\n")
	writeFile(t, dir, "providers.yaml", `
default_provider: ${TEST_AI_PROVIDER:openai}
anthropic:
  api_key: ${TEST_ANTHROPIC_KEY:}
  model: claude-test
openai:
  api_key: ${TEST_OPENAI_KEY_UNSET:}
dummy:
  enabled: ${TEST_DUMMY_UNSET:true}
`)

	l := NewLoader(dir, discardLogger())
	if err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	p := l.Providers()
	if p.DefaultProvider != "openai" {
		t.Errorf("default provider = %q", p.DefaultProvider)
	}
	if p.Anthropic.APIKey != "sk-ant-test" || p.Anthropic.Model != "claude-test" {
		t.Errorf("anthropic = %+v", p.Anthropic)
	}
	if p.Anthropic.BotName != "Claude" {
		t.Errorf("bot name default lost: %q", p.Anthropic.BotName)
	}
	if p.OpenAI.APIKey != "" {
		t.Errorf("openai key should be empty, got %q", p.OpenAI.APIKey)
	}
	if !p.Dummy.Enabled || p.Dummy.Model != "dummy-model-v1" {
		t.Errorf("dummy = %+v", p.Dummy)
	}
	if l.Config().Storage.Driver != "memory" {
		t.Errorf("storage driver = %q", l.Config().Storage.Driver)
	}
}

func TestLoader_ShippedConfigs(t *testing.T) {
	t.Setenv("AI_PROVIDER", "dummy")
	t.Setenv("ENABLE_DUMMY_PROVIDER", "true")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ALLOW_LOCALHOST_ORIGINS", "true")

	l := NewLoader(filepath.Join("..", "..", "configs"), discardLogger())
	if err := l.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	p := l.Providers()
	if p.DefaultProvider != "dummy" {
		t.Errorf("default provider = %q, want dummy", p.DefaultProvider)
	}
	if !p.Dummy.Enabled {
		t.Error("dummy provider should be enabled")
	}
	cfg := l.Config()
	if cfg.Storage.Driver != "memory" {
		t.Errorf("storage driver = %q", cfg.Storage.Driver)
	}
	if !cfg.Server.EnforceAllowedDomains || !cfg.Server.AllowLocalhostOrigins {
		t.Errorf("server domain settings = %+v", cfg.Server)
	}
	if cfg.Chat.HistoryLimit != 10 || cfg.Widget.BotName != "AI Assistant" {
		t.Errorf("chat = %+v, widget = %+v", cfg.Chat, cfg.Widget)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	l := NewLoader(t.TempDir(), discardLogger())
	err := l.Load()
	if err == nil || !strings.Contains(err.Error(), "load chatbot config") {
		t.Errorf("err = %v", err)
	}
}

func TestLoader_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "chatbot.yaml", "chat:\n  history_limit: 3\n")
	writeFile(t, dir, "providers.yaml", "default_provider: dummy\n")

	l := NewLoader(dir, discardLogger())
	if err := l.Load(); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 8)
	l.OnReload(func() { reloaded <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := l.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, dir, "chatbot.yaml", "chat:\n  history_limit: 7\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-reloaded:
			if l.Config().Chat.HistoryLimit == 7 {
				return
			}
		case <-deadline:
			t.Fatalf("config not reloaded, history_limit = %d", l.Config().Chat.HistoryLimit)
		}
	}
}

func TestProvidersConfig_Equal(t *testing.T) {
	a := DefaultProvidersConfig()
	b := DefaultProvidersConfig()
	if !a.Equal(b) {
		t.Error("defaults should be equal")
	}
	b.OpenAI.Headers = map[string]string{"X-Org": "1"}
	if a.Equal(b) {
		t.Error("header change should be detected")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "chatbot", User: "bot", Password: "p@ss"}
	want := "postgres://bot:p%40ss@db:5432/chatbot?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
