package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"npdstudio/internal/errors"
)

// DefaultPredictionURL is the hosted prediction service the dashboard talks to.
const DefaultPredictionURL = "https://binaychandra-npdstudio-predapi.hf.space"

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Prediction PredictionConfig
	Ingest     IngestConfig
	LogLevel   string
}

// DatabaseConfig holds database connection settings. An empty URL keeps scenarios in memory.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// PredictionConfig holds settings for the remote prediction service
type PredictionConfig struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

// UseSample reports whether forecasts come from the built-in sample generator
func (p PredictionConfig) UseSample() bool {
	return strings.EqualFold(p.BaseURL, "sample")
}

// IngestConfig holds distribution upload settings
type IngestConfig struct {
	BatchSize      int
	MaxUploadBytes int64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Prediction: PredictionConfig{
			BaseURL: strings.TrimRight(getEnvOrDefault("PREDICTION_API_URL", DefaultPredictionURL), "/"),
			Timeout: getEnvDurationOrDefault("PREDICTION_API_TIMEOUT", 60*time.Second),
			Retries: getEnvIntOrDefault("PREDICTION_API_RETRIES", 3),
		},
		Ingest: IngestConfig{
			BatchSize:      getEnvIntOrDefault("INGEST_BATCH_SIZE", 1000),
			MaxUploadBytes: int64(getEnvIntOrDefault("UPLOAD_MAX_BYTES", 50*1024*1024)),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Prediction.BaseURL == "" {
		return errors.ConfigInvalid("PREDICTION_API_URL is required")
	}
	if config.Prediction.Timeout <= 0 {
		return errors.ConfigInvalid("PREDICTION_API_TIMEOUT must be positive")
	}
	if config.Prediction.Retries < 1 {
		return errors.ConfigInvalid("PREDICTION_API_RETRIES must be at least 1")
	}
	if config.Ingest.BatchSize < 1 {
		return errors.ConfigInvalid("INGEST_BATCH_SIZE must be at least 1")
	}
	if config.Ingest.MaxUploadBytes < 1 {
		return errors.ConfigInvalid("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
