// Package config loads runtime settings from the environment and an optional YAML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load
const (
	EnvConfigFile   = "TESTLIBRARY_CONFIG"
	EnvManifestsDir = "TESTLIBRARY_MANIFESTS_DIR"
	EnvArtifactsDir = "TESTLIBRARY_ARTIFACTS_DIR"
	EnvLogLevel     = "TESTLIBRARY_LOG_LEVEL"
	EnvLogFormat    = "TESTLIBRARY_LOG_FORMAT"
	EnvHTTPTimeout  = "TESTLIBRARY_HTTP_TIMEOUT"
	EnvTimeZone     = "TESTLIBRARY_TZ"
)

// Config holds runtime settings
type Config struct {
	// ManifestsDir holds <product>.yml manifests; empty means the embedded manifest
	ManifestsDir string        `yaml:"manifests_dir"`
	ArtifactsDir string        `yaml:"artifacts_dir"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	TimeZone     string        `yaml:"time_zone"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		ArtifactsDir: "artifacts",
		LogLevel:     "info",
		LogFormat:    "text",
		HTTPTimeout:  5 * time.Minute,
		TimeZone:     "Local",
	}
}

// Load builds a Config from defaults, then the YAML file named by
// TESTLIBRARY_CONFIG (if any), then individual environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv(EnvManifestsDir); v != "" {
		cfg.ManifestsDir = v
	}
	if v := os.Getenv(EnvArtifactsDir); v != "" {
		cfg.ArtifactsDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv(EnvTimeZone); v != "" {
		cfg.TimeZone = v
	}
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvHTTPTimeout, v, err)
		}
		cfg.HTTPTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) mergeFile(path string) error {
	//nolint:gosec // G304: config path comes from the operator's environment
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}

	if c.ArtifactsDir == "" {
		return fmt.Errorf("artifacts directory is required")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Location resolves TimeZone; "" and "Local" mean the system zone
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// NewLogger builds a slog logger writing to w in the configured format and level
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
