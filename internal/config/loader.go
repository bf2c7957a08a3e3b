package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file and environment. A missing
// config file is not an error; defaults plus ROBOBRAIN_* environment
// overrides apply.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	v.SetEnvPrefix("ROBOBRAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only applies env overrides to keys it knows about.
	bindDefaults(v, DefaultConfig())

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(l.configPath); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// GROQ_API_KEY matches the upstream deployment convention and wins
	// over nothing, not over an explicit key.
	if cfg.Decomposer.APIKey == "" {
		cfg.Decomposer.APIKey = os.Getenv("GROQ_API_KEY")
	}

	return cfg, nil
}

func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("model_server.base_url", cfg.ModelServer.BaseURL)
	v.SetDefault("model_server.timeout_seconds", cfg.ModelServer.TimeoutSeconds)
	v.SetDefault("model_server.enable_thinking", cfg.ModelServer.EnableThinking)
	v.SetDefault("decomposer.provider", cfg.Decomposer.Provider)
	v.SetDefault("decomposer.api_key", cfg.Decomposer.APIKey)
	v.SetDefault("decomposer.base_url", cfg.Decomposer.BaseURL)
	v.SetDefault("decomposer.model", cfg.Decomposer.Model)
	v.SetDefault("sessions.max_turns", cfg.Sessions.MaxTurns)
	v.SetDefault("sessions.idle_ttl_minutes", cfg.Sessions.IdleTTLMinutes)
	v.SetDefault("sessions.cleanup_schedule", cfg.Sessions.CleanupSchedule)
	v.SetDefault("storage.upload_dir", cfg.Storage.UploadDir)
	v.SetDefault("storage.result_dir", cfg.Storage.ResultDir)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
