package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// APIConfig points at the external extraction service.
type APIConfig struct {
	// BaseURL is the single base URL for both the extract and download
	// endpoints.
	BaseURL string `yaml:"base_url"` // default: "http://127.0.0.1:8000"

	// Timeout bounds each upstream call. Zero waits indefinitely.
	Timeout time.Duration `yaml:"timeout"` // default: 5m

	// UserAgent is sent with every upstream request.
	UserAgent string `yaml:"user_agent"`
}

// SessionConfig controls the navigation-state store and visitor cookie.
type SessionConfig struct {
	// TTL is how long an unconsumed result and an idle visitor are kept.
	TTL time.Duration `yaml:"ttl"` // default: 15m

	// MaxEntries caps the number of pending results.
	MaxEntries int `yaml:"max_entries"` // default: 1000

	// CookieSecure marks the visitor cookie as Secure.
	CookieSecure bool `yaml:"cookie_secure"` // default: false
}

// RateLimitConfig controls per-visitor submission rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per visitor.
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 1

	// Burst is the maximum burst size per visitor.
	Burst int `yaml:"burst"` // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:8000",
			Timeout:   5 * time.Minute,
			UserAgent: "scrynk/1.0",
		},
		Session: SessionConfig{
			TTL:        15 * time.Minute,
			MaxEntries: 1000,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// applyEnv overrides fields from SCRYNK_* environment variables.
func (c *Config) applyEnv() {
	c.Server.Host = envOr("SCRYNK_HOST", c.Server.Host)
	c.Server.Port = envIntOr("SCRYNK_PORT", c.Server.Port)
	c.Server.Mode = envOr("SCRYNK_MODE", c.Server.Mode)

	c.API.BaseURL = strings.TrimRight(envOr("SCRYNK_API_BASE_URL", c.API.BaseURL), "/")
	c.API.Timeout = envDurationOr("SCRYNK_API_TIMEOUT", c.API.Timeout)
	c.API.UserAgent = envOr("SCRYNK_USER_AGENT", c.API.UserAgent)

	c.Session.TTL = envDurationOr("SCRYNK_SESSION_TTL", c.Session.TTL)
	c.Session.MaxEntries = envIntOr("SCRYNK_SESSION_MAX_ENTRIES", c.Session.MaxEntries)
	c.Session.CookieSecure = envBoolOr("SCRYNK_COOKIE_SECURE", c.Session.CookieSecure)

	c.RateLimit.RequestsPerSecond = envFloatOr("SCRYNK_RATE_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = envIntOr("SCRYNK_RATE_BURST", c.RateLimit.Burst)

	c.Log.Level = envOr("SCRYNK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("SCRYNK_LOG_FORMAT", c.Log.Format)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envDurationOr accepts "0" to disable a timeout.
func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: unknown server mode %q", c.Server.Mode)
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: API base URL %q must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("config: API timeout must not be negative")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("config: rate limit must be positive")
	}
	return nil
}
