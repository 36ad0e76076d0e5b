package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/handlers"
	"github.com/MegaGrindStone/portfolio-assistant/internal/services"
	"gopkg.in/yaml.v3"
)

type llmConfig interface {
	generator(ctx context.Context, persona string, logger *slog.Logger) (handlers.Generator, error)
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type config struct {
	Port           string          `yaml:"port"`
	SystemPrompt   string          `yaml:"systemPrompt"`
	RequestTimeout time.Duration   `yaml:"requestTimeout"`
	MaxBodyBytes   int64           `yaml:"maxBodyBytes"`
	RateLimit      rateLimitConfig `yaml:"rateLimit"`
	LLM            llmConfig       `yaml:"llm"`
	SMTP           smtpConfig      `yaml:"smtp"`
	InboxPath      string          `yaml:"inboxPath"`
	LogLevel       string          `yaml:"logLevel"`
}

type rateLimitConfig struct {
	PerSecond float64 `yaml:"perSecond"`
	Burst     int     `yaml:"burst"`
}

type geminiConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type openAIConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string                 `yaml:"apiKey"`
	BaseURL       string                 `yaml:"baseURL"`
	Parameters    services.LLMParameters `yaml:"parameters"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type smtpConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	From     string        `yaml:"from"`
	To       string        `yaml:"to"`
	Timeout  time.Duration `yaml:"timeout"`
}

const (
	appName     = "portfolio-assistant"
	defaultPort = "8080"
)

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port           string          `yaml:"port"`
		SystemPrompt   string          `yaml:"systemPrompt"`
		RequestTimeout time.Duration   `yaml:"requestTimeout"`
		MaxBodyBytes   int64           `yaml:"maxBodyBytes"`
		RateLimit      rateLimitConfig `yaml:"rateLimit"`
		LLM            map[string]any  `yaml:"llm"`
		SMTP           smtpConfig      `yaml:"smtp"`
		InboxPath      string          `yaml:"inboxPath"`
		LogLevel       string          `yaml:"logLevel"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.SystemPrompt = rawConfig.SystemPrompt
	c.RequestTimeout = rawConfig.RequestTimeout
	c.MaxBodyBytes = rawConfig.MaxBodyBytes
	c.RateLimit = rawConfig.RateLimit
	c.SMTP = rawConfig.SMTP
	c.InboxPath = rawConfig.InboxPath
	c.LogLevel = rawConfig.LogLevel

	llmProvider := "gemini"
	if rawConfig.LLM != nil {
		p, ok := rawConfig.LLM["provider"].(string)
		if !ok {
			return fmt.Errorf("llm provider is required")
		}
		llmProvider = p
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "gemini":
		llm = &geminiConfig{}
	case "openai":
		llm = &openAIConfig{}
	case "ollama":
		llm = &ollamaConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

// loadConfig reads the YAML config at path. A missing file is only an error when the path was given
// explicitly; otherwise the defaults, completed from the environment, are used.
func loadConfig(path string, explicit bool) (config, error) {
	cfg := config{}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return config{}, fmt.Errorf("error decoding config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}

	if cfg.LLM == nil {
		cfg.LLM = &geminiConfig{}
	}
	if cfg.Port == "" {
		cfg.Port = os.Getenv("PORT")
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.SMTP.Password == "" {
		cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	}
	if cfg.InboxPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return config{}, fmt.Errorf("error getting user config dir: %w", err)
		}
		cfg.InboxPath = filepath.Join(dir, appName, "inbox.db")
	}

	return cfg, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, appName, "config.yaml")
}

func (c config) logLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c config) handlerOptions() handlers.Options {
	return handlers.Options{
		RequestTimeout: c.RequestTimeout,
		MaxBodyBytes:   c.MaxBodyBytes,
		RatePerSecond:  c.RateLimit.PerSecond,
		RateBurst:      c.RateLimit.Burst,
	}
}

func (s smtpConfig) mailer() (handlers.ContactSender, error) {
	if s.Host == "" {
		return services.DisabledMailer{}, nil
	}
	return services.NewMailer(services.SMTPOptions{
		Host:     s.Host,
		Port:     s.Port,
		Username: s.Username,
		Password: s.Password,
		From:     s.From,
		To:       s.To,
		Timeout:  s.Timeout,
	})
}

func (g geminiConfig) generator(ctx context.Context, persona string, logger *slog.Logger) (handlers.Generator, error) {
	apiKey := g.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY")
	}
	return services.NewGemini(ctx, services.GeminiOptions{
		APIKey:  apiKey,
		Model:   g.Model,
		BaseURL: g.BaseURL,
	}, persona, logger)
}

func (o openAIConfig) generator(_ context.Context, persona string, logger *slog.Logger) (handlers.Generator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	return services.NewOpenAI(apiKey, o.BaseURL, o.Model, persona, o.Parameters, logger), nil
}

func (o ollamaConfig) generator(_ context.Context, persona string, _ *slog.Logger) (handlers.Generator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	return services.NewOllama(host, o.Model, persona)
}
