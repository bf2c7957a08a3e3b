package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the main RoboBrain backend configuration
type Config struct {
	// HTTP server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Model inference server
	ModelServer ModelServerConfig `json:"model_server" mapstructure:"model_server"`

	// Query decomposition LLM
	Decomposer DecomposerConfig `json:"decomposer" mapstructure:"decomposer"`

	// Session handling
	Sessions SessionsConfig `json:"sessions" mapstructure:"sessions"`

	// Storage directories
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// ModelServerConfig holds the vision-language model server endpoint
type ModelServerConfig struct {
	BaseURL        string `json:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	EnableThinking bool   `json:"enable_thinking" mapstructure:"enable_thinking"`
}

// Timeout returns the request timeout as a duration.
func (m ModelServerConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// DecomposerConfig holds the decomposition LLM provider settings
type DecomposerConfig struct {
	Provider string `json:"provider" mapstructure:"provider"` // openai, groq, anthropic
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	BaseURL  string `json:"base_url" mapstructure:"base_url"`
	Model    string `json:"model" mapstructure:"model"`
}

// SessionsConfig holds conversation retention settings
type SessionsConfig struct {
	MaxTurns        int    `json:"max_turns" mapstructure:"max_turns"`
	IdleTTLMinutes  int    `json:"idle_ttl_minutes" mapstructure:"idle_ttl_minutes"`
	CleanupSchedule string `json:"cleanup_schedule" mapstructure:"cleanup_schedule"`
}

// IdleTTL returns the idle eviction threshold as a duration.
func (s SessionsConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

// StorageConfig holds upload and result directories
type StorageConfig struct {
	UploadDir string `json:"upload_dir" mapstructure:"upload_dir"`
	ResultDir string `json:"result_dir" mapstructure:"result_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		ModelServer: ModelServerConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 120,
			EnableThinking: false,
		},
		Decomposer: DecomposerConfig{
			Provider: "groq",
		},
		Sessions: SessionsConfig{
			MaxTurns:        20,
			IdleTTLMinutes:  120,
			CleanupSchedule: "@every 15m",
		},
		Storage: StorageConfig{
			UploadDir: "uploads",
			ResultDir: "results",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.ModelServer.BaseURL == "" {
		return fmt.Errorf("model server base_url is required")
	}
	if c.ModelServer.TimeoutSeconds <= 0 {
		return fmt.Errorf("model server timeout must be positive, got %d", c.ModelServer.TimeoutSeconds)
	}

	switch c.Decomposer.Provider {
	case "", "openai", "groq", "anthropic":
	default:
		return fmt.Errorf("invalid decomposer provider %s (must be: openai, groq, anthropic)", c.Decomposer.Provider)
	}

	if c.Sessions.MaxTurns <= 0 {
		return fmt.Errorf("sessions max_turns must be positive, got %d", c.Sessions.MaxTurns)
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage upload_dir is required")
	}
	if c.Storage.ResultDir == "" {
		return fmt.Errorf("storage result_dir is required")
	}

	return nil
}
