// Package config provides centralized configuration management for CodexKeep.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	API         APIConfig
	Database    DatabaseConfig
	Pipeline    PipelineConfig
	Server      ServerConfig
	Logging     LoggingConfig
	Diagnostics DiagnosticsConfig
}

// APIConfig holds Bungie API access settings.
type APIConfig struct {
	// Key is the static API key sent in the X-API-Key header (required)
	Key string `env:"API_KEY" required:"true"`

	// BaseURL is the platform root for manifest and world content requests
	BaseURL string `env:"API_BASE_URL" default:"https://www.bungie.net"`

	// Timeout is the per-request HTTP timeout (default: 30s)
	Timeout time.Duration `env:"API_TIMEOUT" default:"30s"`

	// RetryAttempts is the maximum attempts for transient network failures (default: 3)
	RetryAttempts int `env:"API_RETRY_ATTEMPTS" default:"3"`

	// RetryDelay is the initial backoff delay between attempts (default: 2s)
	RetryDelay time.Duration `env:"API_RETRY_DELAY" default:"2s"`

	// RetryMaxDelay caps the backoff delay (default: 30s)
	RetryMaxDelay time.Duration `env:"API_RETRY_MAX_DELAY" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// QueryTimeout bounds each database operation so a stalled server
	// cannot hang a run (default: 2m)
	QueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" default:"2m"`
}

// PipelineConfig holds ingestion run settings.
type PipelineConfig struct {
	// BatchSize is the number of rows committed per transaction (default: 2500)
	BatchSize int `env:"BATCH_SIZE" default:"2500"`

	// RunTimeout is the maximum duration for one full run (default: 30m)
	RunTimeout time.Duration `env:"RUN_TIMEOUT" default:"30m"`

	// Locale selects the manifest content language (default: en)
	Locale string `env:"MANIFEST_LOCALE" default:"en"`
}

// ServerConfig holds HTTP read-surface settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// DiagnosticsConfig holds the append-only diagnostics artifacts.
type DiagnosticsConfig struct {
	// ErrorLog receives run and error events (default: error_log.txt)
	ErrorLog string `env:"DIAG_ERROR_LOG" default:"error_log.txt"`

	// FindingsLog receives validation findings (default: validation_errors.txt)
	FindingsLog string `env:"DIAG_FINDINGS_LOG" default:"validation_errors.txt"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
