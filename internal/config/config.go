package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds system-wide client settings, kept separate from business
// logic so components receive plain values through constructors.
type Config struct {
	API     *APIConfig     `json:"api"`
	Polling *PollingConfig `json:"polling"`
	Storage *StorageConfig `json:"storage"`
}

// APIConfig locates the remote platform and bounds each round trip.
type APIConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// PollingConfig carries the fixed refresh periods. The lobby poll detects
// membership changes and room termination; the session poll additionally
// refreshes the active session; the countdown tick drives the local
// remaining-time display.
type PollingConfig struct {
	LobbyInterval   time.Duration `json:"lobby_interval"`
	SessionInterval time.Duration `json:"session_interval"`
	CountdownTick   time.Duration `json:"countdown_tick"`
}

// StorageConfig locates the local credential store.
type StorageConfig struct {
	Path    string        `json:"path"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns production defaults: platform on localhost, 3 second
// lobby polling, 5 second session polling, credential store next to the
// binary.
func DefaultConfig() *Config {
	return &Config{
		API: &APIConfig{
			BaseURL: "http://localhost:8083/api",
			Timeout: 10 * time.Second,
		},
		Polling: &PollingConfig{
			LobbyInterval:   3 * time.Second,
			SessionInterval: 5 * time.Second,
			CountdownTick:   time.Minute,
		},
		Storage: &StorageConfig{
			Path:    "./codecollab.db",
			Timeout: 30 * time.Second,
		},
	}
}

// Validate rejects configurations that would fail at runtime.
func (c *Config) Validate() error {
	if c.API == nil {
		return fmt.Errorf("API configuration is required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL cannot be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}
	if c.Polling == nil {
		return fmt.Errorf("polling configuration is required")
	}
	if c.Polling.LobbyInterval <= 0 {
		return fmt.Errorf("lobby poll interval must be positive")
	}
	if c.Polling.SessionInterval <= 0 {
		return fmt.Errorf("session poll interval must be positive")
	}
	if c.Polling.CountdownTick <= 0 {
		return fmt.Errorf("countdown tick must be positive")
	}
	if c.Storage == nil {
		return fmt.Errorf("storage configuration is required")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path cannot be empty")
	}
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("storage timeout must be positive")
	}
	return nil
}

// LoadFromEnv builds a config from defaults with environment overrides.
// Invalid values fall back to the default rather than failing startup.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if baseURL := os.Getenv("CODECOLLAB_API_BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if timeout := os.Getenv("CODECOLLAB_API_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.API.Timeout = d
		}
	}
	if interval := os.Getenv("CODECOLLAB_LOBBY_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Polling.LobbyInterval = d
		}
	}
	if interval := os.Getenv("CODECOLLAB_SESSION_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Polling.SessionInterval = d
		}
	}
	if tick := os.Getenv("CODECOLLAB_COUNTDOWN_TICK"); tick != "" {
		if d, err := time.ParseDuration(tick); err == nil {
			config.Polling.CountdownTick = d
		}
	}
	if path := os.Getenv("CODECOLLAB_STORAGE_PATH"); path != "" {
		config.Storage.Path = path
	}
	if timeout := os.Getenv("CODECOLLAB_STORAGE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Storage.Timeout = d
		}
	}

	return config
}

// ConfigFile mirrors Config for JSON parsing, with durations as strings.
type ConfigFile struct {
	API     *APIConfigFile     `json:"api"`
	Polling *PollingConfigFile `json:"polling"`
	Storage *StorageConfigFile `json:"storage"`
}

type APIConfigFile struct {
	BaseURL string `json:"base_url"`
	Timeout string `json:"timeout"`
}

type PollingConfigFile struct {
	LobbyInterval   string `json:"lobby_interval"`
	SessionInterval string `json:"session_interval"`
	CountdownTick   string `json:"countdown_tick"`
}

type StorageConfigFile struct {
	Path    string `json:"path"`
	Timeout string `json:"timeout"`
}

// LoadFromFile reads a JSON config file over the defaults. Unknown or
// unparsable duration strings keep the default value.
func LoadFromFile(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var configFile ConfigFile
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filepath, err)
	}

	config := DefaultConfig()

	if configFile.API != nil {
		if configFile.API.BaseURL != "" {
			config.API.BaseURL = configFile.API.BaseURL
		}
		if configFile.API.Timeout != "" {
			if d, err := time.ParseDuration(configFile.API.Timeout); err == nil {
				config.API.Timeout = d
			}
		}
	}
	if configFile.Polling != nil {
		if configFile.Polling.LobbyInterval != "" {
			if d, err := time.ParseDuration(configFile.Polling.LobbyInterval); err == nil {
				config.Polling.LobbyInterval = d
			}
		}
		if configFile.Polling.SessionInterval != "" {
			if d, err := time.ParseDuration(configFile.Polling.SessionInterval); err == nil {
				config.Polling.SessionInterval = d
			}
		}
		if configFile.Polling.CountdownTick != "" {
			if d, err := time.ParseDuration(configFile.Polling.CountdownTick); err == nil {
				config.Polling.CountdownTick = d
			}
		}
	}
	if configFile.Storage != nil {
		if configFile.Storage.Path != "" {
			config.Storage.Path = configFile.Storage.Path
		}
		if configFile.Storage.Timeout != "" {
			if d, err := time.ParseDuration(configFile.Storage.Timeout); err == nil {
				config.Storage.Timeout = d
			}
		}
	}

	return config, nil
}

// FormatSummary returns a single log-friendly line describing the config.
func (c *Config) FormatSummary() string {
	return fmt.Sprintf("api=%s lobby_poll=%s session_poll=%s storage=%s",
		c.API.BaseURL, c.Polling.LobbyInterval, c.Polling.SessionInterval, c.Storage.Path)
}
