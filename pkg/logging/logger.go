// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Environment variables read by ConfigFromEnv.
const (
	EnvLevel  = "LOG_LEVEL"
	EnvPretty = "LOG_PRETTY"
)

// ConfigFromEnv returns DefaultConfig overridden by LOG_LEVEL and LOG_PRETTY.
// An unparsable LOG_PRETTY keeps the default.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if level := os.Getenv(EnvLevel); level != "" {
		cfg.Level = LogLevel(strings.ToLower(level))
	}
	if pretty, err := strconv.ParseBool(os.Getenv(EnvPretty)); err == nil {
		cfg.Pretty = pretty
	}
	return cfg
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component names attached by NewLogger.
const (
	ComponentClient     = "registry-client"
	ComponentAggregator = "aggregator"
	ComponentAuth       = "auth"
	ComponentDashboard  = "dashboard"
)

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Individual page requests (page, size, status)
//   - Token store reads and writes
//
// Info: Normal operation events
//   - Completed aggregations (requested, records, outcome)
//   - Token acquisition
//   - Server startup/shutdown, CSV exports
//
// Warn: Warning conditions that don't prevent operation
//   - Aborted aggregations (upstream or auth errors surfaced to the user)
//   - Rejected tokens (401) and token store errors
//   - Invalid user input
//
// Error: Error conditions requiring attention
//   - Authentication failures
//   - Unexpected internal errors
//   - Configuration errors
//
// Context Fields:
//   - component: Emitting package (see the Component* constants)
//   - endpoint: Registry endpoint path
//   - page, size: Listing page index and requested size
//   - status_code: HTTP status code
//   - duration: Request or aggregation duration
//   - error_class: Error classification (auth, client, server, network, decode)
//   - country, from, to: Query filter
//   - request_id: Dashboard request ID
