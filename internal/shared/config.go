package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Content  ContentConfig  `toml:"content"`
	Log      LogConfig      `toml:"log"`
}

// AuthConfig contains settings for the hosted auth service.
type AuthConfig struct {
	URL               string        `toml:"url"`
	AnonKey           string        `toml:"anon_key"`
	SiteURL           string        `toml:"site_url"`
	RedirectURL       string        `toml:"redirect_url"`
	ResetRedirectURL  string        `toml:"reset_redirect_url"`
	RefreshMargin     time.Duration `toml:"refresh_margin"`
	RefreshInterval   time.Duration `toml:"refresh_interval"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Timeout           time.Duration `toml:"timeout"`
}

// Configured reports whether enough is set to talk to the auth service.
func (a AuthConfig) Configured() bool {
	return a.URL != "" && a.AnonKey != "" && a.AnonKey != "your_anon_key"
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the OAuth callback and the local API.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ContentConfig points at the static course manifests.
type ContentConfig struct {
	Dir string `toml:"dir"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
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
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResolveConfigPath returns the first existing config file among the working directory and ~/.learnx.
//
// When neither exists the working directory path is returned.
func ResolveConfigPath() string {
	const name = "config.toml"
	if _, err := os.Stat(name); err == nil {
		return name
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, ".learnx", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return name
}
