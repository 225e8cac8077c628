// Package config loads recordwire settings from a YAML or TOML file.
//
// Config file locations (priority order):
//  1. $RECORDWIRE_CONFIG
//  2. ./recordwire.yaml
//  3. ./recordwire.toml
//  4. $XDG_CONFIG_HOME/recordwire/config.yaml
//  5. ~/.config/recordwire/config.yaml
//  6. /etc/recordwire/config.yaml
//
// A missing file is not an error: Load returns defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recordwire/internal/home"
)

// Defaults.
const (
	DefaultDatabasePath   = "./recordwire.db"
	DefaultServerAddr     = ":7340"
	DefaultMaxCableLength = 7.0
	DefaultLogLevel       = "info"
)

// Config is the full set of recordwire settings.
type Config struct {
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Catalog  CatalogConfig  `yaml:"catalog" toml:"catalog"`
	Network  NetworkConfig  `yaml:"network" toml:"network"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

// DatabaseConfig locates the sqlite store.
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// ServerConfig configures the read-only HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// CatalogConfig points at a CUE component catalog. Empty means the
// embedded catalog.
type CatalogConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// NetworkConfig holds wiring rules and the load policy.
type NetworkConfig struct {
	MaxCableLength float64 `yaml:"max_cable_length" toml:"max_cable_length"`
	RadiusSource   string  `yaml:"radius_source" toml:"radius_source"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// Load finds and loads the config file, or returns defaults if none found.
// The returned path is "" when defaults were used.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path. The format is chosen by
// extension: .toml is TOML, anything else is YAML.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, path, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("config %s: %w", path, err)
	}

	return &cfg, path, nil
}

// Save writes config to path in the format its extension selects.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(c)
		data = []byte(b.String())
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the settings used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Server:   ServerConfig{Addr: DefaultServerAddr},
		Network: NetworkConfig{
			MaxCableLength: DefaultMaxCableLength,
			RadiusSource:   string(home.RadiusDerived),
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Network.MaxCableLength == 0 {
		c.Network.MaxCableLength = DefaultMaxCableLength
	}
	if c.Network.RadiusSource == "" {
		c.Network.RadiusSource = string(home.RadiusDerived)
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Network.MaxCableLength < 0 {
		errs = append(errs, fmt.Errorf("network.max_cable_length must not be negative, got %g", c.Network.MaxCableLength))
	}
	if _, err := home.ParseRadiusPolicy(c.Network.RadiusSource); err != nil {
		errs = append(errs, fmt.Errorf("network.radius_source: %w", err))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// RadiusPolicy returns the parsed network.radius_source.
func (c *Config) RadiusPolicy() home.RadiusPolicy {
	p, err := home.ParseRadiusPolicy(c.Network.RadiusSource)
	if err != nil {
		return home.RadiusDerived
	}
	return p
}

// LogLevel returns the parsed log.level, falling back to info.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
