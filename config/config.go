package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSystemPrompt asks the model to finish every answer with Markdown source links.
const DefaultSystemPrompt = "You are a research assistant. Use the web_search tool when it helps, " +
	"and always end your answer with a \"Sources\" section: a bulleted list of Markdown links " +
	"in the form [title](URL). Keep the body concise and lead with the key points."

// Config holds all configuration for searchchat
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// Normalize applies defaults for unset values.
func (g GeneralConfig) Normalize() GeneralConfig {
	g.LogLevel = strings.ToLower(strings.TrimSpace(g.LogLevel))
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	return g
}

// Validate checks the log level.
func (g GeneralConfig) Validate() error {
	switch g.LogLevel {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("general.log_level %q not supported (debug, info, warn, error)", g.LogLevel)
}

// DebugEnabled reports whether debug lines should be logged, either through
// general.debug or general.log_level=debug.
func (g GeneralConfig) DebugEnabled() bool {
	return g.Debug || g.LogLevel == "debug"
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address       string   `mapstructure:"address"`
	StreamEnabled bool     `mapstructure:"stream_enabled"`
	AllowOrigins  []string `mapstructure:"allow_origins"`
}

// LLMConfig describes the remote model API and the request ladder.
type LLMConfig struct {
	Provider      string   `mapstructure:"provider"` // only openai for now
	APIKey        string   `mapstructure:"api_key"`
	BaseURL       string   `mapstructure:"base_url"`
	Model         string   `mapstructure:"model"`          // preferred model
	FallbackModel string   `mapstructure:"fallback_model"` // last ladder step
	Models        []string `mapstructure:"models"`         // selectable models
	SystemPrompt  string   `mapstructure:"system_prompt"`
	// HeaderTimeout bounds the wait for response headers; the body may stream longer.
	HeaderTimeout time.Duration `mapstructure:"header_timeout"`
	// AttemptTimeout bounds one ladder attempt end to end. Zero disables it.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	IncludeHistory bool          `mapstructure:"include_history"`
	// HistoryTokens bounds the prior turns sent with include_history. Zero is unbounded.
	HistoryTokens int `mapstructure:"history_tokens"`
}

// Normalize applies defaults for unset values.
func (c LLMConfig) Normalize() LLMConfig {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = "openai"
	}
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		c.Model = "gpt-5"
	}
	c.FallbackModel = strings.TrimSpace(c.FallbackModel)
	if c.FallbackModel == "" {
		c.FallbackModel = "gpt-4o"
	}
	seen := make(map[string]struct{}, len(c.Models)+1)
	var models []string
	for _, m := range c.Models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		models = append(models, m)
	}
	if _, ok := seen[c.Model]; !ok {
		models = append([]string{c.Model}, models...)
	}
	c.Models = models
	if strings.TrimSpace(c.SystemPrompt) == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.HeaderTimeout <= 0 {
		c.HeaderTimeout = 60 * time.Second
	}
	return c
}

// Validate checks the LLM configuration.
func (c LLMConfig) Validate() error {
	if c.Provider != "openai" {
		return fmt.Errorf("llm.provider %q not supported", c.Provider)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("llm.api_key required (or OPENAI_API_KEY)")
	}
	if c.AttemptTimeout < 0 {
		return fmt.Errorf("llm.attempt_timeout cannot be negative")
	}
	if c.HistoryTokens < 0 {
		return fmt.Errorf("llm.history_tokens cannot be negative")
	}
	return nil
}

// HasModel reports whether id is one of the selectable models.
func (c LLMConfig) HasModel(id string) bool {
	return slices.Contains(c.Models, id)
}

// SearchConfig controls the hosted web search tool.
type SearchConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SessionConfig controls in-memory chat sessions.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Normalize applies defaults for unset values.
func (c SessionConfig) Normalize() SessionConfig {
	if c.TTL <= 0 {
		c.TTL = 2 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	return c
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.MetricsPort < 0 {
		return fmt.Errorf("telemetry.metrics_port cannot be negative")
	}
	return nil
}

// Load reads config from path, or searches the default locations when path is
// empty. A missing config file is only an error when path was given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.address", ":10001")
	v.SetDefault("server.stream_enabled", true)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-5")
	v.SetDefault("llm.fallback_model", "gpt-4o")
	v.SetDefault("llm.models", []string{"gpt-5", "gpt-4o-mini-search-preview"})
	v.SetDefault("llm.history_tokens", 8000)
	v.SetDefault("search.enabled", true)
	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(exe))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("SEARCHCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("llm.api_key", "SEARCHCHAT_LLM_API_KEY", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.General = cfg.General.Normalize()
	cfg.LLM = cfg.LLM.Normalize()
	cfg.Session = cfg.Session.Normalize()

	if err := cfg.General.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads config and panics on failure.
func LoadConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return cfg
}
