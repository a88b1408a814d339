package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type (
	// Config holds configuration settings for the service
	Config struct {
		APIHost  string
		APIPort  int
		LogLevel string

		// APITimeout bounds each call to the external identity API
		APITimeout time.Duration

		// EmitBufferSize is the capacity of the per-run event channel.
		// Emission blocks when the buffer is full, applying backpressure
		// to the running handler
		EmitBufferSize int

		ShutdownTimeout time.Duration
	}
)

const (
	DefaultAPIHost        = "0.0.0.0"
	DefaultAPIPort        = 8080
	MaxTCPPort            = 65535
	DefaultAPITimeout     = 30 * time.Second
	DefaultEmitBufferSize = 64
	MaxEmitBufferSize     = 65536

	DefaultShutdownTimeout = 10 * time.Second
)

var (
	ErrInvalidAPIPort        = errors.New("invalid API port")
	ErrInvalidAPITimeout     = errors.New("API timeout must be positive")
	ErrInvalidEmitBufferSize = errors.New(
		"emit buffer size must be positive",
	)
)

// NewDefaultConfig creates a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		LogLevel:        "info",
		APITimeout:      DefaultAPITimeout,
		EmitBufferSize:  DefaultEmitBufferSize,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if apiHost := os.Getenv("API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"EMIT_BUFFER_SIZE", &c.EmitBufferSize, 0, MaxEmitBufferSize,
	); err != nil {
		return err
	}

	if err := loadEnvDuration("API_TIMEOUT", &c.APITimeout); err != nil {
		return err
	}
	return loadEnvDuration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.APITimeout <= 0 {
		return ErrInvalidAPITimeout
	}
	if c.EmitBufferSize <= 0 {
		return ErrInvalidEmitBufferSize
	}
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

// loadEnvDuration reads key from the environment and parses it as a
// time.Duration, requiring a positive value
func loadEnvDuration(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s: must be positive", key)
	}
	*dst = d
	return nil
}
