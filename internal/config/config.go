package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration loaded from a single TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	LLM       LLMConfig       `toml:"llm"`
	Session   SessionConfig   `toml:"session"`
	Weather   WeatherConfig   `toml:"weather"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Data      DataConfig      `toml:"data"`
	Storage   StorageConfig   `toml:"storage"`
	Prompts   PromptsConfig   `toml:"prompts"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host                string   `toml:"host"`
	Port                int      `toml:"port"`
	CORSAllowedOrigins  []string `toml:"cors_allowed_origins"`
	MaxConns            int      `toml:"max_conns"`
	ReadTimeoutSeconds  int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_seconds"`
}

// LLMConfig represents the generative model configuration
type LLMConfig struct {
	// APIKey falls back to the OPENAI_API_KEY environment variable when empty.
	APIKey                string  `toml:"api_key"`
	BaseURL               string  `toml:"base_url"`
	Model                 string  `toml:"model"`
	Temperature           float64 `toml:"temperature"`
	MaxTokens             int     `toml:"max_tokens"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
}

// SessionConfig represents per-session behavior tuning
type SessionConfig struct {
	// PendingRecheckSeconds is the deferred re-check delay after a clearance
	// request arrived before its supporting data did.
	PendingRecheckSeconds int `toml:"pending_recheck_seconds"`
	MaxSessions           int `toml:"max_sessions"`
}

// WeatherConfig represents the weather provider configuration
type WeatherConfig struct {
	APIBaseURL            string `toml:"api_base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	CacheExpiryMinutes    int    `toml:"cache_expiry_minutes"`
	FetchMETAR            bool   `toml:"fetch_metar"`
	FetchTAF              bool   `toml:"fetch_taf"`
}

// TelemetryConfig represents the simulator state poller configuration
type TelemetryConfig struct {
	Enabled             bool   `toml:"enabled"`
	EndpointURL         string `toml:"endpoint_url"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// DataConfig points at optional reference data overrides. Built-in tables
// are used when a path is empty.
type DataConfig struct {
	AirlinesFile    string `toml:"airlines_file"`
	AirportsFile    string `toml:"airports_file"`
	FrequenciesFile string `toml:"frequencies_file"`
}

// StorageConfig represents the transmission journal configuration
type StorageConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"`
}

// PromptsConfig represents prompt template loading
type PromptsConfig struct {
	Dir       string `toml:"dir"`
	HotReload bool   `toml:"hot_reload"`
}

// LoggingConfig represents logger configuration
type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// DefaultConfig returns a fully usable configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8555,
			CORSAllowedOrigins:  []string{"*"},
			MaxConns:            64,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 60,
		},
		LLM: LLMConfig{
			Model:                 "gpt-4o-mini",
			Temperature:           0.4,
			MaxTokens:             300,
			RequestTimeoutSeconds: 30,
		},
		Session: SessionConfig{
			PendingRecheckSeconds: 4,
			MaxSessions:           16,
		},
		Weather: WeatherConfig{
			APIBaseURL:            "https://aviationweather.gov/api/data",
			RequestTimeoutSeconds: 10,
			CacheExpiryMinutes:    15,
			FetchMETAR:            true,
			FetchTAF:              true,
		},
		Telemetry: TelemetryConfig{
			Enabled:             false,
			PollIntervalSeconds: 2,
		},
		Storage: StorageConfig{
			Enabled: true,
			DBPath:  "atc-engine.db",
		},
		Prompts: PromptsConfig{
			HotReload: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from the given TOML file, overlaying the
// defaults. An empty path returns the defaults untouched.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects configuration values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model must not be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature out of range: %f", c.LLM.Temperature)
	}
	if c.Session.PendingRecheckSeconds < 0 {
		return fmt.Errorf("session pending_recheck_seconds must not be negative")
	}
	if c.Telemetry.Enabled && c.Telemetry.EndpointURL == "" {
		return fmt.Errorf("telemetry enabled but endpoint_url is empty")
	}
	if c.Storage.Enabled && c.Storage.DBPath == "" {
		return fmt.Errorf("storage enabled but db_path is empty")
	}
	return nil
}
