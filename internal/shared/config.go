package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// ProviderConfig contains Musixmatch API settings.
type ProviderConfig struct {
	APIKey    string  `toml:"api_key"`
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"` // requests per second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrAlreadyExists)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveAPIKey returns the Musixmatch api key from the config, falling back to
// the MUSIXMATCH_API environment variable. A .env file in the working directory
// is loaded first if present.
func (c *Config) ResolveAPIKey() (string, error) {
	if c.Provider.APIKey != "" {
		return c.Provider.APIKey, nil
	}

	_ = godotenv.Load()

	if key := os.Getenv("MUSIXMATCH_API"); key != "" {
		return key, nil
	}

	return "", fmt.Errorf("%w: set provider.api_key or MUSIXMATCH_API", ErrMissingAPIKey)
}
