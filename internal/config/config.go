// Package config provides configuration management for the taskerino
// query pipeline. Settings are loaded from environment variables with
// the TASKERINO_ prefix, with sensible defaults for every option.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the pipeline and its
// outer HTTP surface.
type Config struct {
	Server   ServerConfig
	Security SecurityConfig
	LLM      LLMConfig
	Agent    AgentConfig
	Index    IndexConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 7070)
	Host string // Server host (default: 127.0.0.1)

	// RateLimitPerSec is the sustained request rate allowed per server
	// (default: 10). RateLimitBurst is the burst size (default: 20).
	RateLimitPerSec float64
	RateLimitBurst  int
}

// SecurityConfig contains authentication settings for the HTTP surface.
type SecurityConfig struct {
	SecurityMode string // development or production (default: development)
	APIToken     string // bearer token required in production mode
}

// LLMConfig contains the Claude Messages API configuration.
type LLMConfig struct {
	APIKey    string        // Anthropic API key (may also be set at runtime)
	Model     string        // model identifier (default: claude-3-5-haiku-20241022)
	MaxTokens int           // maximum output tokens per call (default: 1024)
	Timeout   time.Duration // transport timeout (default: 60s)

	// CacheTTL is the assumed validity window of the upstream prompt
	// cache. Cache markers are re-attached once a thread's cached
	// blocks are older than this. Injectable so tests can simulate
	// expiry (default: 5m, the provider's ephemeral window).
	CacheTTL time.Duration
}

// AgentConfig contains orchestrator tuning.
type AgentConfig struct {
	// GraphOnlyThreshold is the graph-filtered candidate count at or
	// below which the LLM call is skipped entirely (default: 10).
	GraphOnlyThreshold int

	// FallbackLimit caps keyword-fallback matches per collection
	// (default: 10).
	FallbackLimit int
}

// IndexConfig selects the relationship index backend for the server
// binary. The pipeline itself only consumes the index interface.
type IndexConfig struct {
	Backend string // memory, sqlite, or postgres (default: memory)
	DSN     string // backend connection string (sqlite path or postgres URL)
}

// LoadConfig loads configuration from environment variables with
// sensible defaults. All environment variables use the TASKERINO_ prefix.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnvInt("TASKERINO_PORT", 7070),
			Host:            getEnv("TASKERINO_HOST", "127.0.0.1"),
			RateLimitPerSec: getEnvFloat("TASKERINO_RATE_LIMIT", 10),
			RateLimitBurst:  getEnvInt("TASKERINO_RATE_BURST", 20),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("TASKERINO_SECURITY_MODE", "development"),
			APIToken:     getEnv("TASKERINO_API_TOKEN", ""),
		},
		LLM: LLMConfig{
			APIKey:    getEnv("TASKERINO_ANTHROPIC_API_KEY", ""),
			Model:     getEnv("TASKERINO_ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			MaxTokens: getEnvInt("TASKERINO_MAX_TOKENS", 1024),
			Timeout:   getEnvDuration("TASKERINO_LLM_TIMEOUT", 60*time.Second),
			CacheTTL:  getEnvDuration("TASKERINO_CACHE_TTL", 5*time.Minute),
		},
		Agent: AgentConfig{
			GraphOnlyThreshold: getEnvInt("TASKERINO_GRAPH_ONLY_THRESHOLD", 10),
			FallbackLimit:      getEnvInt("TASKERINO_FALLBACK_LIMIT", 10),
		},
		Index: IndexConfig{
			Backend: getEnv("TASKERINO_INDEX_BACKEND", "memory"),
			DSN:     getEnv("TASKERINO_INDEX_DSN", ""),
		},
	}
}

// Validate checks the loaded configuration for values that would break
// the pipeline at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.Server.RateLimitPerSec <= 0 {
		return fmt.Errorf("config: rate limit must be > 0, got %v", c.Server.RateLimitPerSec)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("config: rate limit burst must be >= 1, got %d", c.Server.RateLimitBurst)
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("config: MaxTokens must be >= 1, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("config: LLM timeout must be > 0, got %v", c.LLM.Timeout)
	}
	if c.LLM.CacheTTL <= 0 {
		return fmt.Errorf("config: cache TTL must be > 0, got %v", c.LLM.CacheTTL)
	}
	if c.Agent.GraphOnlyThreshold < 0 {
		return fmt.Errorf("config: GraphOnlyThreshold must be >= 0, got %d", c.Agent.GraphOnlyThreshold)
	}
	if c.Security.SecurityMode != "development" && c.Security.SecurityMode != "production" {
		return fmt.Errorf("config: unknown security mode %q", c.Security.SecurityMode)
	}
	if c.Security.SecurityMode == "production" && c.Security.APIToken == "" {
		return fmt.Errorf("config: API token is required in production mode")
	}
	switch c.Index.Backend {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown index backend %q", c.Index.Backend)
	}
	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "90s") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
