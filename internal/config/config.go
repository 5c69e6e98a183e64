package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file settings
const (
	EnvConfig      = "DOCMCP_CONFIG"
	EnvDataDir     = "DOCMCP_DATA_DIR"
	EnvSourceURL   = "DOCMCP_SOURCE_URL"
	EnvCacheTTL    = "DOCMCP_CACHE_TTL"
	EnvMaxResults  = "DOCMCP_MAX_RESULTS"
	EnvLockTimeout = "DOCMCP_LOCK_TIMEOUT"
	EnvLogLevel    = "DOCMCP_LOG_LEVEL"
	EnvLogFormat   = "DOCMCP_LOG_FORMAT"
)

// Config holds the settings shared by the MCP server and the indexer CLI
type Config struct {
	DataDir       string        `yaml:"data_dir"`
	SourceURL     string        `yaml:"source_url,omitempty"` // published search_index.js, empty = embedded copy only
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	MaxResults    int           `yaml:"max_results"`
	MaxResultsCap int           `yaml:"max_results_cap"`
	LockTimeout   time.Duration `yaml:"lock_timeout"`
	LockRetryWait time.Duration `yaml:"lock_retry_wait"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"` // "text" or "json"
}

// Default returns the built-in configuration
func Default() *Config {
	dataDir := filepath.Join(".", "data")
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".documenter-mcp")
	}
	return &Config{
		DataDir:       dataDir,
		CacheTTL:      7 * 24 * time.Hour,
		MaxResults:    10,
		MaxResultsCap: 20,
		LockTimeout:   5 * time.Second,
		LockRetryWait: 500 * time.Millisecond,
		HTTPTimeout:   30 * time.Second,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// DefaultPath returns the config file used when none is given:
// $DOCMCP_CONFIG, else ~/.documenter-mcp/config.yaml
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(Default().DataDir, "config.yaml")
}

// Load builds the configuration from defaults, a .env file in the working
// directory, the YAML file at path (optional), and DOCMCP_* variables, in
// increasing order of precedence.
func Load(path string) (*Config, error) {
	// .env is optional; variables already set in the environment win
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", expanded, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("cannot read config %s: %w", expanded, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.DataDir, err = ExpandPath(cfg.DataDir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.DataDir = getStringEnv(EnvDataDir, c.DataDir)
	c.SourceURL = getStringEnv(EnvSourceURL, c.SourceURL)
	c.LogLevel = getStringEnv(EnvLogLevel, c.LogLevel)
	c.LogFormat = getStringEnv(EnvLogFormat, c.LogFormat)

	var err error
	if c.CacheTTL, err = getDurationEnv(EnvCacheTTL, c.CacheTTL); err != nil {
		return err
	}
	if c.MaxResults, err = getIntEnv(EnvMaxResults, c.MaxResults); err != nil {
		return err
	}
	if c.LockTimeout, err = getDurationEnv(EnvLockTimeout, c.LockTimeout); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %v", c.CacheTTL)
	}
	if c.MaxResults <= 0 || c.MaxResultsCap <= 0 {
		return fmt.Errorf("max_results and max_results_cap must be positive")
	}
	if c.MaxResults > c.MaxResultsCap {
		return fmt.Errorf("max_results (%d) exceeds max_results_cap (%d)", c.MaxResults, c.MaxResultsCap)
	}
	if c.LockTimeout <= 0 || c.LockRetryWait <= 0 {
		return fmt.Errorf("lock_timeout and lock_retry_wait must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %v", c.HTTPTimeout)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want text or json)", c.LogFormat)
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

func getStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: want an integer", key, value)
	}
	return intValue, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: want a duration such as 168h or 30s", key, value)
	}
	return duration, nil
}
