package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/services"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigProviders(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, llm llmConfig)
		wantErr bool
	}{
		{
			name: "Gemini",
			content: `
llm:
  provider: gemini
  model: gemini-2.0-flash
  apiKey: secret
`,
			check: func(t *testing.T, llm llmConfig) {
				g, ok := llm.(*geminiConfig)
				if !ok {
					t.Fatalf("llm = %T, want *geminiConfig", llm)
				}
				if g.Model != "gemini-2.0-flash" || g.APIKey != "secret" {
					t.Errorf("gemini config = %+v", g)
				}
			},
		},
		{
			name: "OpenAI with parameters",
			content: `
llm:
  provider: openai
  model: gpt-4o-mini
  baseURL: http://localhost:9999/v1
  parameters:
    temperature: 0.3
    maxTokens: 512
`,
			check: func(t *testing.T, llm llmConfig) {
				o, ok := llm.(*openAIConfig)
				if !ok {
					t.Fatalf("llm = %T, want *openAIConfig", llm)
				}
				if o.Model != "gpt-4o-mini" || o.BaseURL != "http://localhost:9999/v1" {
					t.Errorf("openai config = %+v", o)
				}
				if o.Parameters.Temperature == nil || *o.Parameters.Temperature != 0.3 {
					t.Errorf("temperature = %v, want 0.3", o.Parameters.Temperature)
				}
				if o.Parameters.MaxTokens == nil || *o.Parameters.MaxTokens != 512 {
					t.Errorf("maxTokens = %v, want 512", o.Parameters.MaxTokens)
				}
				if o.Parameters.TopP != nil {
					t.Errorf("topP = %v, want unset", *o.Parameters.TopP)
				}
			},
		},
		{
			name: "Ollama",
			content: `
llm:
  provider: ollama
  model: llama3.2
  host: http://localhost:11434
`,
			check: func(t *testing.T, llm llmConfig) {
				o, ok := llm.(*ollamaConfig)
				if !ok {
					t.Fatalf("llm = %T, want *ollamaConfig", llm)
				}
				if o.Model != "llama3.2" || o.Host != "http://localhost:11434" {
					t.Errorf("ollama config = %+v", o)
				}
			},
		},
		{
			name:    "No llm block defaults to gemini",
			content: "port: \"3000\"\n",
			check: func(t *testing.T, llm llmConfig) {
				if _, ok := llm.(*geminiConfig); !ok {
					t.Fatalf("llm = %T, want *geminiConfig", llm)
				}
			},
		},
		{
			name:    "Unknown provider",
			content: "llm:\n  provider: anthropic\n",
			wantErr: true,
		},
		{
			name:    "Missing provider",
			content: "llm:\n  model: gpt-4o\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(writeConfig(t, tt.content), true)
			if tt.wantErr {
				if err == nil {
					t.Fatal("loadConfig() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadConfig() error = %v", err)
			}
			tt.check(t, cfg.LLM)
		})
	}
}

func TestLoadConfigSettings(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "from-env")

	path := writeConfig(t, `
port: "9090"
systemPrompt: You are a terse assistant.
requestTimeout: 45s
maxBodyBytes: 4096
rateLimit:
  perSecond: 0.5
  burst: 3
smtp:
  host: smtp.example.com
  port: 587
  username: site@example.com
  from: site@example.com
  to: owner@example.com
inboxPath: /tmp/inbox.db
logLevel: debug
`)

	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.SystemPrompt != "You are a terse assistant." {
		t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
	}
	if cfg.SMTP.Password != "from-env" {
		t.Errorf("SMTP password = %q, want the environment fallback", cfg.SMTP.Password)
	}
	if cfg.InboxPath != "/tmp/inbox.db" {
		t.Errorf("InboxPath = %q", cfg.InboxPath)
	}

	opts := cfg.handlerOptions()
	if opts.RequestTimeout != 45*time.Second || opts.MaxBodyBytes != 4096 {
		t.Errorf("handler options = %+v", opts)
	}
	if opts.RatePerSecond != 0.5 || opts.RateBurst != 3 {
		t.Errorf("rate limit options = %+v", opts)
	}
	if cfg.logLevel().String() != "DEBUG" {
		t.Errorf("logLevel() = %v, want DEBUG", cfg.logLevel())
	}

	mailer, err := cfg.SMTP.mailer()
	if err != nil {
		t.Fatalf("mailer() error = %v", err)
	}
	if _, ok := mailer.(services.Mailer); !ok {
		t.Errorf("mailer() = %T, want services.Mailer", mailer)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SMTP_PASSWORD", "")

	missing := filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := loadConfig(missing, true); err == nil {
		t.Error("loadConfig() error = nil for a missing explicit config")
	}

	cfg, err := loadConfig(missing, false)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("Port = %q, want %q", cfg.Port, defaultPort)
	}
	if _, ok := cfg.LLM.(*geminiConfig); !ok {
		t.Errorf("LLM = %T, want *geminiConfig", cfg.LLM)
	}
	if filepath.Base(cfg.InboxPath) != "inbox.db" {
		t.Errorf("InboxPath = %q, want an inbox.db default", cfg.InboxPath)
	}

	mailer, err := cfg.SMTP.mailer()
	if err != nil {
		t.Fatalf("mailer() error = %v", err)
	}
	if _, ok := mailer.(services.DisabledMailer); !ok {
		t.Errorf("mailer() = %T, want services.DisabledMailer", mailer)
	}
}

func TestLoadConfigPortFromEnv(t *testing.T) {
	t.Setenv("PORT", "4321")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Port != "4321" {
		t.Errorf("Port = %q, want 4321", cfg.Port)
	}
}

func TestGeneratorsRequireModelOrKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		name string
		llm  llmConfig
	}{
		{name: "Gemini without key", llm: &geminiConfig{}},
		{name: "OpenAI without model", llm: &openAIConfig{APIKey: "k"}},
		{name: "OpenAI without key", llm: &openAIConfig{BaseLLMConfig: BaseLLMConfig{Model: "gpt-4o"}}},
		{name: "Ollama without model", llm: &ollamaConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.llm.generator(t.Context(), "persona", nil); err == nil {
				t.Error("generator() error = nil, want error")
			}
		})
	}
}
