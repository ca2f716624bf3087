// Package config holds the configuration of the bh tool: backend address,
// session storage, logging and display preferences.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
	Logging LoggingConfig `toml:"logging"`
	Display DisplayConfig `toml:"display"`
}

// APIConfig is the backend connection.
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	Timeout   string `toml:"timeout"`
	RateLimit int    `toml:"rate_limit"` // requests per second
}

// GetTimeout parses and returns the timeout duration
func (c *APIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// SessionConfig selects where the session record is kept.
type SessionConfig struct {
	Store string `toml:"store"` // "file" or "sqlite"
	Path  string `toml:"path"`  // directory (file) or database file (sqlite), defaults under the user config dir
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// DisplayConfig holds rendering preferences.
type DisplayConfig struct {
	SearchDebounce string `toml:"search_debounce"`
	Color          bool   `toml:"color"`
}

// GetSearchDebounce parses the interactive search delay.
func (c *DisplayConfig) GetSearchDebounce() time.Duration {
	d, err := time.ParseDuration(c.SearchDebounce)
	if err != nil || d < 0 {
		return 300 * time.Millisecond
	}
	return d
}

func NewDefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8080/api",
			Timeout:   "30s",
			RateLimit: 10,
		},
		Session: SessionConfig{Store: "file"},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		Display: DisplayConfig{SearchDebounce: "300ms", Color: true},
	}
}

// DefaultPath is the configuration file read when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "brokerhub", "config.toml")
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones, missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("BROKERHUB_API_URL"); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv("BROKERHUB_API_TIMEOUT"); v != "" {
		config.API.Timeout = v
	}
	if v := os.Getenv("BROKERHUB_API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.API.RateLimit = n
		}
	}
	if v := os.Getenv("BROKERHUB_SESSION_STORE"); v != "" {
		config.Session.Store = v
	}
	if v := os.Getenv("BROKERHUB_SESSION_PATH"); v != "" {
		config.Session.Path = v
	}
	if v := os.Getenv("BROKERHUB_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("BROKERHUB_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		config.Display.Color = false
	}
}

func (c *Config) validate() error {
	switch c.Session.Store {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid session store %q, want file or sqlite", c.Session.Store)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, want text or json", c.Logging.Format)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.API.RateLimit <= 0 {
		return fmt.Errorf("invalid rate limit %d, want a positive number of requests per second", c.API.RateLimit)
	}
	return nil
}

// NewLogger builds the logger described by the configuration, writing to w.
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	if c.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: !c.Display.Color,
		})
	}
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
	return log
}
