// Package config provides centralized configuration management for the dashboard.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	View     ViewConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 15s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// SourceConfig describes where the scores resource lives.
type SourceConfig struct {
	// Locator is a file path, file://, http(s)://, s3:// or postgres:// URL.
	// DATA_URL is accepted for compatibility with older deployments.
	Locator string `env:"DATA_SOURCE" envAlt:"DATA_URL" default:"data/youtube_ad_male.csv"`

	// Timeout bounds the single startup fetch (default: 30s)
	Timeout time.Duration `env:"SOURCE_TIMEOUT" default:"30s"`

	// MaxBytes caps how much of the resource is read (default: 64MB)
	MaxBytes int64 `env:"SOURCE_MAX_BYTES" default:"67108864"`

	// S3Region overrides the region from the AWS default chain
	S3Region string `env:"SOURCE_S3_REGION"`

	// S3Endpoint points the S3 client at a compatible store (MinIO, localstack)
	S3Endpoint string `env:"SOURCE_S3_ENDPOINT"`

	// S3PathStyle forces path-style addressing, needed by most S3-compatible stores
	S3PathStyle bool `env:"SOURCE_S3_PATH_STYLE" default:"false"`
}

// ViewConfig holds table presentation settings.
type ViewConfig struct {
	// EmbedBase is prefixed to a video id to build the player frame URL
	EmbedBase string `env:"VIDEO_EMBED_BASE" default:"https://www.youtube.com/embed/"`

	// File is an optional YAML file overriding the default view
	File string `env:"VIEW_CONFIG_FILE"`
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	// MaxConcurrent is how many exports may stream at once (default: 2)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"2"`

	// MaxWait is how long an export waits for a free slot (default: 5s)
	MaxWait time.Duration `env:"EXPORT_MAX_WAIT" default:"5s"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// Burst is how many requests an IP may make at once (default: 30)
	Burst int `env:"RATE_LIMIT_BURST" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
