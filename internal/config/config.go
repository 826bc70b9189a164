// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Data    DataConfig
	Cache   CacheConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// TrustedProxies is a comma-separated list of CIDRs whose X-Real-IP and
	// X-Forwarded-For headers are believed. Empty means the connection
	// address is always used.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// DataConfig locates the source files. File names are used exactly as
// given; relative paths are resolved against Dir.
type DataConfig struct {
	// Dir is the base directory for relative paths (default: current directory)
	Dir string `env:"DATA_DIR"`

	// AirportsPath is the airport detail file (required)
	AirportsPath string `env:"AIRPORTS_PATH" envAlt:"AIRPORTS_FILE" required:"true"`

	// ReportPaths is a comma-separated list of ministry report files, loaded
	// and concatenated in the given order (required)
	ReportPaths []string `env:"REPORT_PATHS" envAlt:"REPORTS" required:"true"`

	// AirportsDelimiter separates fields in the airport file (default: ;)
	AirportsDelimiter rune `env:"AIRPORTS_DELIMITER" default:";"`

	// ReportDelimiter separates fields in report files (default: ,)
	ReportDelimiter rune `env:"REPORT_DELIMITER" default:","`

	// Encoding of all source files: utf-8, latin1 or windows-1252 (default: utf-8)
	Encoding string `env:"DATA_ENCODING" default:"utf-8"`
}

// CacheConfig holds load cache settings.
type CacheConfig struct {
	// Enabled keeps loaded data in memory between requests (default: true)
	Enabled bool `env:"CACHE_ENABLED" default:"true"`

	// WarmOnStart loads the data before the server starts listening (default: true)
	WarmOnStart bool `env:"CACHE_WARM_ON_START" default:"true"`
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

// Airports returns the resolved airport file path.
func (c *DataConfig) Airports() string {
	return c.resolve(c.AirportsPath)
}

// Reports returns the resolved report file paths in configured order.
func (c *DataConfig) Reports() []string {
	out := make([]string, len(c.ReportPaths))
	for i, p := range c.ReportPaths {
		out[i] = c.resolve(p)
	}
	return out
}

func (c *DataConfig) resolve(p string) string {
	if p == "" || c.Dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
