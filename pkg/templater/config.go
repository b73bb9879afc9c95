package templater

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config contains the engine-wide configuration options.
type Config struct {
	// CacheMaxSize is the per-store entry capacity. 0 disables caching.
	CacheMaxSize int
	// CacheTTL is the per-entry time-to-live. 0 means no expiration.
	CacheTTL time.Duration
	// LogLevel controls logging verbosity (debug, info, warn, error, off).
	LogLevel string
	// StrictMode makes missing standard/numeric paths an error.
	StrictMode bool
	// PreserveUnmatched leaves unresolved markers as literal text
	// instead of stripping them.
	PreserveUnmatched bool
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheMaxSize:      100,
		CacheTTL:          0,
		LogLevel:          "info",
		StrictMode:        false,
		PreserveUnmatched: true,
	}
}

// ConfigFromEnvironment creates a configuration from OOXMLTPL_*
// environment variables, falling back to defaults.
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	if val := os.Getenv("OOXMLTPL_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}
	if val := os.Getenv("OOXMLTPL_CACHE_TTL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = duration
		}
	}
	if val := os.Getenv("OOXMLTPL_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}
	if val := os.Getenv("OOXMLTPL_STRICT_MODE"); val != "" {
		config.StrictMode = parseBool(val)
	}
	if val := os.Getenv("OOXMLTPL_PRESERVE_UNMATCHED"); val != "" {
		config.PreserveUnmatched = parseBool(val)
	}

	return config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.CacheMaxSize < 0 {
		return errors.New("cache max size cannot be negative")
	}
	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}
	return nil
}

// Options derives substitution options from the configuration.
func (c *Config) Options() Options {
	return Options{
		Strict:            c.StrictMode,
		PreserveUnmatched: c.PreserveUnmatched,
		DeleteEmpty:       true,
	}
}

// GetGlobalConfig returns a copy of the global configuration.
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration.
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	UpdateLoggerFromConfig()
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
