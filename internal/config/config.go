// Package config loads the dashboard's runtime configuration from the
// environment, after an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/registry-dashboard/pkg/logging"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultBaseURL    = "https://connect.palturai.com"
	DefaultSystemName = "PHOENIX"
	DefaultPort       = "8080"
	DefaultUserAgent  = "registry-dashboard/0.1.0"
	DefaultTimeout    = 30 * time.Second
)

// Config holds all configuration for the application.
type Config struct {
	// Registry upstream.
	BaseURL    string
	Username   string
	Password   string
	SystemName string

	// Token is a preconfigured Authorization value. When set, the
	// authenticate handshake is skipped.
	Token string

	// RedisURL enables the shared token store and the readiness ping.
	// Empty keeps tokens in memory.
	RedisURL string

	Port        string
	UserAgent   string
	HTTPTimeout time.Duration

	Logging logging.Config
}

// Load reads configuration from the environment. A missing .env file is not
// an error; a malformed one is.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	timeout, err := getEnvAsDuration("HTTP_TIMEOUT", DefaultTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseURL:     getEnv("REGISTRY_BASE_URL", DefaultBaseURL),
		Username:    os.Getenv("REGISTRY_USERNAME"),
		Password:    os.Getenv("REGISTRY_PASSWORD"),
		SystemName:  getEnv("REGISTRY_SYSTEM_NAME", DefaultSystemName),
		Token:       os.Getenv("REGISTRY_TOKEN"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Port:        getEnv("PORT", DefaultPort),
		UserAgent:   getEnv("USER_AGENT", DefaultUserAgent),
		HTTPTimeout: timeout,
		Logging:     logging.ConfigFromEnv(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the registry can be reached with some credential.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("REGISTRY_BASE_URL must not be empty")
	}
	if c.Token == "" && (c.Username == "" || c.Password == "") {
		return fmt.Errorf("either REGISTRY_TOKEN or REGISTRY_USERNAME and REGISTRY_PASSWORD are required")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be >= 0 (got %s)", c.HTTPTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	// Bare integers are seconds.
	secs, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	log.Debug().Str("key", key).Int("seconds", secs).Msg("Duration given as seconds")
	return time.Duration(secs) * time.Second, nil
}
