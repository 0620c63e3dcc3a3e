package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// HTTP settings
	HTTPPort    int
	BearerToken string

	// Upload settings
	MaxUploadBytes int64

	// Session settings
	SessionTTL      time.Duration
	SessionCapacity int

	// Logging settings
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		// HTTP settings
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		BearerToken: os.Getenv("BEARER_TOKEN"),

		// Upload settings
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 32<<20),

		// Session settings
		SessionTTL:      getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionCapacity: getEnvInt("SESSION_CAPACITY", 64),

		// Logging settings
		LogLevel:  getEnvString("LOG_LEVEL", "info"),
		LogFormat: getEnvString("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AuthDisabled returns true if bearer token authentication is disabled.
func (c *Config) AuthDisabled() bool {
	return c.BearerToken == ""
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return errors.New("HTTP_PORT must be between 1 and 65535")
	}

	if c.MaxUploadBytes < 1 {
		return errors.New("MAX_UPLOAD_BYTES must be at least 1")
	}

	if c.SessionCapacity < 1 {
		return errors.New("SESSION_CAPACITY must be at least 1")
	}

	if c.SessionTTL < 0 {
		return errors.New("SESSION_TTL must be non-negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		return errors.New("LOG_FORMAT must be one of: text, json")
	}

	return nil
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns the environment variable as an int64 or a default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
