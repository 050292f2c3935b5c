// Package config defines the typed application configuration and its
// YAML loader. Values support ${ENV_VAR} expansion with optional
// defaults, so secrets stay out of the file.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	LLM     LLMConfig     `koanf:"llm"`
	Redis   RedisConfig   `koanf:"redis"`
	Search  SearchConfig  `koanf:"search"`
	Skills  CatalogConfig `koanf:"skills"`
	Agents  CatalogConfig `koanf:"agents"`
	L1      L1Config      `koanf:"l1"`
	L3      L3Config      `koanf:"l3"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LLMConfig configures the chat model provider.
type LLMConfig struct {
	Host           string  `koanf:"host"`
	APIKey         string  `koanf:"api_key"`
	Model          string  `koanf:"model"`
	Temperature    float64 `koanf:"temperature"`
	MaxTokens      int     `koanf:"max_tokens"`
	TimeoutSeconds int     `koanf:"timeout_seconds"`
	MaxRetries     int     `koanf:"max_retries"`
}

// RedisConfig configures the shared cache used by the todo store. With
// Enabled false the in-memory store is used instead.
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// SearchConfig configures the web_search tool backend.
type SearchConfig struct {
	Endpoint string `koanf:"endpoint"`
	APIKey   string `koanf:"api_key"`
}

// CatalogConfig points at the directories a file-based catalog (skills,
// sub-agents) is scanned from. Later directories override earlier ones.
type CatalogConfig struct {
	Dirs []string `koanf:"dirs"`
}

// L1Config tunes the fast track.
type L1Config struct {
	BasePrompt string `koanf:"base_prompt"`
}

// L3Config bounds deep-reasoning runs.
type L3Config struct {
	MaxIterations  int `koanf:"max_iterations"`
	TimeoutSeconds int `koanf:"timeout_seconds"`
	MaxLLMCalls    int `koanf:"max_llm_calls"`
}

// Timeout converts the configured seconds to a duration.
func (c L3Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoggingConfig configures the slog setup.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Output string `koanf:"output"`
}

// MetricsConfig toggles the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// SetDefaults fills every unset field with its default.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.LLM.Host == "" {
		c.LLM.Host = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4096
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}

	if len(c.Skills.Dirs) == 0 {
		c.Skills.Dirs = []string{"./skills"}
	}
	if len(c.Agents.Dirs) == 0 {
		c.Agents.Dirs = []string{"./agents"}
	}

	if c.L3.MaxIterations == 0 {
		c.L3.MaxIterations = 15
	}
	if c.L3.TimeoutSeconds == 0 {
		c.L3.TimeoutSeconds = 180
	}
	if c.L3.MaxLLMCalls == 0 {
		c.L3.MaxLLMCalls = 30
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "simple"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set it or use ${OPENAI_API_KEY})")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature %.2f out of range [0, 2]", c.LLM.Temperature)
	}
	if c.L3.MaxIterations < 1 {
		return fmt.Errorf("l3.max_iterations must be positive")
	}
	if c.L3.MaxLLMCalls < 1 {
		return fmt.Errorf("l3.max_llm_calls must be positive")
	}
	return nil
}
